package wizard

import "time"

// debouncer keeps at most one pending timer. Every arm replaces the previous
// timer. A fired callback must claim its generation before acting so a timer
// that lost a race with arm or stop becomes a no-op. Not safe for concurrent
// use; the controller guards it with its mutex.
type debouncer struct {
	clock Clock
	delay time.Duration
	gen   uint64
	timer Timer
}

func (d *debouncer) arm(fire func(gen uint64)) {
	d.stop()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { fire(gen) })
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *debouncer) pending() bool {
	return d.timer != nil
}

// claim reports whether gen is the live timer and marks it consumed.
func (d *debouncer) claim(gen uint64) bool {
	if d.timer == nil || gen != d.gen {
		return false
	}
	d.timer = nil
	return true
}
