// Package wizard implements the resume-creation session: a six-step state
// machine with validation-gated transitions, a local snapshot and a debounced
// sync to the resumes API.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

const (
	DefaultDebounce          = 2 * time.Second
	DefaultSyncTimeout       = 15 * time.Second
	DefaultGenerationTimeout = 2 * time.Minute

	snapshotTimeout = 2 * time.Second
)

// Options configures a Controller. Key and Gateway are required.
type Options struct {
	Key               string
	UserID            string
	Gateway           resumeapi.Gateway
	Store             SnapshotStore
	Generator         generation.Generator
	Clock             Clock
	Debounce          time.Duration
	SyncTimeout       time.Duration
	GenerationTimeout time.Duration
	Observer          Observer
}

// State is a read-only view of a controller.
type State struct {
	Key           string
	Session       Session
	Generation    GenerationState
	Syncing       bool
	SyncPending   bool
	LastSyncError string
	Warnings      []string
}

// Controller owns one wizard session. All mutation goes through its methods.
type Controller struct {
	key               string
	userID            string
	gateway           resumeapi.Gateway
	store             SnapshotStore
	generator         generation.Generator
	clock             Clock
	observer          Observer
	syncTimeout       time.Duration
	generationTimeout time.Duration

	// advanceMu serializes step transitions, which may flush outside mu.
	advanceMu sync.Mutex

	// snapMu orders snapshot writes, which run after mu is released.
	snapMu    sync.Mutex
	storedSeq uint64

	mu             sync.Mutex
	session        Session
	dirty          field
	debounce       debouncer
	syncing        bool
	syncDone       chan struct{}
	lastSyncError  string
	generation     GenerationState
	generationErr  error
	generationDone chan struct{}
	warnings       []string
	closed         bool
	discarded      bool
	lastActive     time.Time
	events         []Event
	snapSeq        uint64
	snapWrite      *snapshotWrite
}

type snapshotWrite struct {
	seq  uint64
	step string
	data string
}

// New builds a controller holding an empty session at step 1.
func New(opts Options) (*Controller, error) {
	if strings.TrimSpace(opts.Key) == "" {
		return nil, fmt.Errorf("%w: wizard key is required", ErrInvalidInput)
	}
	if opts.Gateway == nil {
		return nil, errors.New("wizard: gateway is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	syncTimeout := opts.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = DefaultSyncTimeout
	}
	genTimeout := opts.GenerationTimeout
	if genTimeout <= 0 {
		genTimeout = DefaultGenerationTimeout
	}
	return &Controller{
		key:               opts.Key,
		userID:            opts.UserID,
		gateway:           opts.Gateway,
		store:             opts.Store,
		generator:         opts.Generator,
		clock:             clock,
		observer:          opts.Observer,
		syncTimeout:       syncTimeout,
		generationTimeout: genTimeout,
		session:           newSession(),
		debounce:          debouncer{clock: clock, delay: delay},
		generation:        GenerationState{Status: GenerationIdle},
		lastActive:        clock.Now(),
	}, nil
}

// Key identifies the session.
func (c *Controller) Key() string { return c.key }

// UserID is the owner recorded at creation or restored from the snapshot.
func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Snapshot returns a deep copy of the session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// State returns the session together with sync and generation status.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Key:           c.key,
		Session:       c.session.Clone(),
		Generation:    c.generation,
		Syncing:       c.syncing,
		SyncPending:   c.dirty != 0,
		LastSyncError: c.lastSyncError,
		Warnings:      append([]string(nil), c.warnings...),
	}
}

// ProposeUpdate merges p into the session, records the local snapshot and
// re-arms the sync timer. It performs no validation.
func (c *Controller) ProposeUpdate(p Patch) {
	c.mu.Lock()
	defer c.unlockAndDispatch()
	if c.closed {
		return
	}
	c.proposeLocked(p)
}

func (c *Controller) proposeLocked(p Patch) {
	touched := p.apply(&c.session)
	c.dirty |= touched
	c.lastActive = c.clock.Now()
	c.writeSnapshotLocked()
	if touched != 0 {
		c.armLocked()
	}
	c.emitLocked(Event{Kind: EventDataChanged})
}

// RequestAdvance moves to the next step when the current step is complete.
// A failed predicate returns *ValidationError and leaves the step unchanged.
// Leaving Generation or Review flushes pending changes first.
func (c *Controller) RequestAdvance(ctx context.Context) error {
	c.advanceMu.Lock()
	defer c.advanceMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	step := c.session.CurrentStep
	if step >= LastStep {
		c.mu.Unlock()
		return ErrTerminalStep
	}
	if step == StepGeneration && c.generation.Status == GenerationRunning {
		c.mu.Unlock()
		return ErrGenerationInProgress
	}
	c.mu.Unlock()

	if step == StepGeneration || step == StepReview {
		if err := c.Flush(ctx); err != nil {
			telemetry.Warn("wizard.advance.flush_failed", map[string]any{
				"wizard_key": c.key,
				"step":       int(step),
				"error":      err.Error(),
			})
		}
	}

	c.mu.Lock()
	defer c.unlockAndDispatch()
	if err := Validate(step, c.session); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.IncValidationFailed()
			c.emitLocked(Event{Kind: EventValidationFailed, Message: verr.Message, Err: err})
		}
		return err
	}
	c.session.CurrentStep = step + 1
	c.lastActive = c.clock.Now()
	c.writeSnapshotLocked()
	metrics.IncStepAdvanced()
	c.emitLocked(Event{Kind: EventStepChanged})
	return nil
}

// RequestRetreat moves back one step. It reports false at the first step.
func (c *Controller) RequestRetreat() bool {
	c.advanceMu.Lock()
	defer c.advanceMu.Unlock()

	c.mu.Lock()
	defer c.unlockAndDispatch()
	if c.closed || c.session.CurrentStep <= FirstStep {
		return false
	}
	c.session.CurrentStep--
	c.lastActive = c.clock.Now()
	c.writeSnapshotLocked()
	c.emitLocked(Event{Kind: EventStepChanged})
	return true
}

// Restore loads the local snapshot. It must be called before the session is
// used. Unreadable data is wiped and the session starts over; documents lose
// their content in a snapshot and are dropped. The step snaps back to the
// furthest step whose predecessors are complete. A store that cannot be read
// yields ErrSnapshotUnavailable and leaves the controller empty.
func (c *Controller) Restore(ctx context.Context) error {
	_, err := c.restore(ctx)
	return err
}

// restore reports whether a snapshot existed for the key.
func (c *Controller) restore(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	stepRaw, hasStep, err := c.store.Get(ctx, StepKey(c.key))
	if err != nil {
		return false, fmt.Errorf("%w: read step: %v", ErrSnapshotUnavailable, err)
	}
	dataRaw, hasData, err := c.store.Get(ctx, DataKey(c.key))
	if err != nil {
		return false, fmt.Errorf("%w: read data: %v", ErrSnapshotUnavailable, err)
	}
	if !hasStep && !hasData {
		return false, nil
	}

	c.mu.Lock()
	defer c.unlockAndDispatch()

	snap, err := decodeSnapshot(stepRaw, dataRaw)
	if err != nil {
		if derr := c.store.Delete(ctx, StepKey(c.key), DataKey(c.key)); derr != nil {
			telemetry.Warn("wizard.snapshot.delete_failed", map[string]any{"wizard_key": c.key, "error": derr.Error()})
		}
		c.session = newSession()
		c.dirty = 0
		c.debounce.stop()
		telemetry.Warn("wizard.restore.corrupt", map[string]any{"wizard_key": c.key, "error": err.Error()})
		c.warnLocked("Saved session data could not be read and has been cleared")
		return true, nil
	}
	if snap.droppedDocs > 0 {
		c.warnLocked(fmt.Sprintf("%d source document(s) could not be restored. Please upload them again", snap.droppedDocs))
	}
	if snap.userID != "" {
		c.userID = snap.userID
	}
	session := snap.session
	session.CurrentStep = ReachableStep(session.CurrentStep, session)
	c.session = session
	c.dirty = snap.pending
	c.writeSnapshotLocked()
	if c.dirty != 0 {
		c.armLocked()
	}
	c.emitLocked(Event{Kind: EventStepChanged})
	return true, nil
}

// saveLocal records the current session in the snapshot store.
func (c *Controller) saveLocal() {
	c.mu.Lock()
	defer c.unlockAndDispatch()
	c.writeSnapshotLocked()
}

// Close waits for a running generation, flushes pending changes and stops the
// controller. The local snapshot is kept.
func (c *Controller) Close(ctx context.Context) error {
	if err := c.waitGeneration(ctx); err != nil {
		return err
	}
	flushErr := c.Flush(ctx)

	c.mu.Lock()
	c.closed = true
	c.debounce.stop()
	c.mu.Unlock()
	return flushErr
}

// Discard stops the controller and removes its local snapshot. Pending changes are dropped.
func (c *Controller) Discard(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.discarded = true
	c.debounce.stop()
	c.dirty = 0
	c.snapWrite = nil
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	return c.store.Delete(ctx, StepKey(c.key), DataKey(c.key))
}

// LastActive is the time of the last user-driven change.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Busy reports whether a sync or generation is running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing || c.generation.Status == GenerationRunning
}

func (c *Controller) armLocked() {
	if c.closed {
		return
	}
	c.debounce.arm(c.onTimer)
}

func (c *Controller) warnLocked(msg string) {
	c.warnings = append(c.warnings, msg)
	c.emitLocked(Event{Kind: EventRestoreWarning, Message: msg})
}

// writeSnapshotLocked encodes the session; unlockAndDispatch stores it once mu
// is released.
func (c *Controller) writeSnapshotLocked() {
	if c.store == nil || c.closed {
		return
	}
	step, data, err := encodeSnapshot(c.userID, c.session, c.dirty)
	if err != nil {
		telemetry.Warn("wizard.snapshot.encode_failed", map[string]any{"wizard_key": c.key, "error": err.Error()})
		return
	}
	c.snapSeq++
	c.snapWrite = &snapshotWrite{seq: c.snapSeq, step: step, data: data}
}

// storeSnapshot writes w unless a newer snapshot already landed or the
// session was discarded.
func (c *Controller) storeSnapshot(w *snapshotWrite) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	if w.seq <= c.storedSeq {
		return
	}
	c.mu.Lock()
	discarded := c.discarded
	c.mu.Unlock()
	if discarded {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	err := c.store.Set(ctx, StepKey(c.key), w.step)
	if err == nil {
		err = c.store.Set(ctx, DataKey(c.key), w.data)
	}
	if err != nil {
		telemetry.Warn("wizard.snapshot.write_failed", map[string]any{"wizard_key": c.key, "error": err.Error()})
		return
	}
	c.storedSeq = w.seq
}

// emitLocked queues e; queued events go out in unlockAndDispatch.
func (c *Controller) emitLocked(e Event) {
	if c.observer == nil {
		return
	}
	e.Key = c.key
	if e.Step == 0 {
		e.Step = c.session.CurrentStep
	}
	c.events = append(c.events, e)
}

func (c *Controller) unlockAndDispatch() {
	events := c.events
	c.events = nil
	write := c.snapWrite
	c.snapWrite = nil
	c.mu.Unlock()
	if write != nil {
		c.storeSnapshot(write)
	}
	for _, e := range events {
		c.observer(e)
	}
}
