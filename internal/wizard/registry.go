package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-wizard/internal/shared/telemetry"
)

// DefaultIdleTTL is how long an untouched session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Registry keeps the live controllers of a process, keyed by wizard key.
type Registry struct {
	base Options
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller
	// evicting holds keys whose controller is being closed; done closes after
	// the final flush.
	evicting map[string]chan struct{}
}

// NewRegistry returns a registry that builds controllers from base. Key and
// UserID in base are ignored.
func NewRegistry(base Options, idle time.Duration) *Registry {
	if base.Clock == nil {
		base.Clock = SystemClock
	}
	if idle <= 0 {
		idle = DefaultIdleTTL
	}
	return &Registry{
		base:     base,
		idle:     idle,
		sessions: make(map[string]*Controller),
		evicting: make(map[string]chan struct{}),
	}
}

// Create opens a session under a fresh key.
func (r *Registry) Create(ctx context.Context, userID string) (*Controller, error) {
	c, _, err := r.Ensure(ctx, uuid.NewString(), userID)
	return c, err
}

// Open returns the live controller for key, or builds one from its snapshot.
// restored reports whether a new controller was built. A key with no live
// controller and no snapshot yields ErrSessionNotFound; an unreadable store
// yields ErrSnapshotUnavailable. Neither registers a controller.
func (r *Registry) Open(ctx context.Context, key, userID string) (c *Controller, restored bool, err error) {
	c, restored, _, err = r.open(ctx, key, userID, false)
	return c, restored, err
}

// Ensure is Open, except that an unknown key starts a new session owned by
// userID. created reports whether that happened.
func (r *Registry) Ensure(ctx context.Context, key, userID string) (c *Controller, created bool, err error) {
	c, _, created, err = r.open(ctx, key, userID, true)
	return c, created, err
}

func (r *Registry) open(ctx context.Context, key, userID string, create bool) (c *Controller, built, created bool, err error) {
	if err := r.lockSettled(ctx, key); err != nil {
		return nil, false, false, err
	}
	defer r.mu.Unlock()
	if c, ok := r.sessions[key]; ok {
		return c, false, false, nil
	}
	opts := r.base
	opts.Key = key
	opts.UserID = userID
	if c, err = New(opts); err != nil {
		return nil, false, false, err
	}
	found, err := c.restore(ctx)
	if err != nil {
		telemetry.Warn("wizard.restore.failed", map[string]any{"wizard_key": key, "error": err.Error()})
		return nil, false, false, err
	}
	if !found {
		if !create {
			return nil, false, false, ErrSessionNotFound
		}
		c.saveLocal()
	}
	r.sessions[key] = c
	return c, true, !found, nil
}

// lockSettled acquires r.mu once key is not being evicted.
func (r *Registry) lockSettled(ctx context.Context, key string) error {
	for {
		r.mu.Lock()
		done, ok := r.evicting[key]
		if !ok {
			return nil
		}
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Get returns a live controller without touching the snapshot store.
func (r *Registry) Get(key string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[key]
	return c, ok
}

// Discard drops the session and its snapshot.
func (r *Registry) Discard(ctx context.Context, key string) error {
	if err := r.lockSettled(ctx, key); err != nil {
		return err
	}
	c, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if !ok {
		opts := r.base
		opts.Key = key
		var err error
		if c, err = New(opts); err != nil {
			return err
		}
	}
	return c.Discard(ctx)
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL. Busy sessions are kept.
// Opening an evicted key waits until its final flush is done.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.base.Clock.Now()
	r.mu.Lock()
	evict := make(map[string]*Controller)
	for key, c := range r.sessions {
		if now.Sub(c.LastActive()) < r.idle || c.Busy() {
			continue
		}
		evict[key] = c
		delete(r.sessions, key)
		r.evicting[key] = make(chan struct{})
	}
	r.mu.Unlock()

	for key, c := range evict {
		if err := c.Close(ctx); err != nil {
			telemetry.Warn("wizard.evict.flush_failed", map[string]any{"wizard_key": key, "error": err.Error()})
		}
		r.mu.Lock()
		close(r.evicting[key])
		delete(r.evicting, key)
		r.mu.Unlock()
	}
	if len(evict) > 0 {
		telemetry.Info("wizard.evicted", map[string]any{"count": len(evict)})
	}
	return len(evict)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Close flushes and closes every session.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	var errs []error
	for key, c := range sessions {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
