package wizard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/snapshot"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due callbacks outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	live := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped || t.fired:
		case !t.at.After(c.now):
			t.fired = true
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	c.timers = live
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

type gatewayCall struct {
	create  bool
	id      string
	payload resumeapi.Payload
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	errs    []error
	nextID  int
	entered chan struct{}
	release chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

// failNext queues errors returned by the next calls, in order.
func (g *fakeGateway) failNext(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, errs...)
}

func (g *fakeGateway) record(call gatewayCall) error {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	var err error
	if len(g.errs) > 0 {
		err = g.errs[0]
		g.errs = g.errs[1:]
	}
	entered, release := g.entered, g.release
	g.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return err
}

func (g *fakeGateway) Create(_ context.Context, p resumeapi.Payload) (resumeapi.Resource, error) {
	if err := g.record(gatewayCall{create: true, payload: p}); err != nil {
		return resumeapi.Resource{}, err
	}
	g.mu.Lock()
	g.nextID++
	id := "resume-" + string(rune('0'+g.nextID))
	g.mu.Unlock()
	return resumeapi.Resource{ID: id, Status: statusFor(resumeapi.StatusDraft, p)}, nil
}

func (g *fakeGateway) Update(_ context.Context, id string, p resumeapi.Payload) (resumeapi.Resource, error) {
	if err := g.record(gatewayCall{id: id, payload: p}); err != nil {
		return resumeapi.Resource{}, err
	}
	return resumeapi.Resource{ID: id, Status: statusFor(resumeapi.StatusDraft, p)}, nil
}

func statusFor(base resumeapi.Status, p resumeapi.Payload) resumeapi.Status {
	switch {
	case p.Status != nil:
		return *p.Status
	case p.FinalResume != nil:
		return resumeapi.StatusFinalized
	case p.GeneratedResume != nil:
		return resumeapi.StatusGenerated
	}
	return base
}

func (g *fakeGateway) Calls() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.calls...)
}

type fakeGenerator struct {
	content string
	err     error
	block   chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, _ generation.Input, onProgress func(generation.Progress)) (string, error) {
	for i, task := range generation.Phases {
		if f.block != nil && i == 2 {
			select {
			case <-f.block:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if onProgress != nil {
			onProgress(generation.Progress{
				Phase:   i + 1,
				Total:   len(generation.Phases),
				Task:    task,
				Percent: float64(i+1) / float64(len(generation.Phases)) * 100,
			})
		}
	}
	if f.err != nil {
		return "", errors.Join(generation.ErrGenerationFailed, f.err)
	}
	return f.content, nil
}

type harness struct {
	clock   *fakeClock
	gateway *fakeGateway
	store   *snapshot.Memory
	gen     *fakeGenerator
	ctrl    *Controller

	mu     sync.Mutex
	events []Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:   newFakeClock(),
		gateway: newFakeGateway(),
		store:   snapshot.NewMemory(),
		gen:     &fakeGenerator{content: "# Jane Doe\n\n## Experience\nBuilt things"},
	}
	h.ctrl = h.newController(t, "wiz-1")
	return h
}

func (h *harness) newController(t *testing.T, key string) *Controller {
	t.Helper()
	c, err := New(Options{
		Key:       key,
		UserID:    "user-1",
		Gateway:   h.gateway,
		Store:     h.store,
		Generator: h.gen,
		Clock:     h.clock,
		Observer: func(e Event) {
			h.mu.Lock()
			h.events = append(h.events, e)
			h.mu.Unlock()
		},
	})
	require.NoError(t, err)
	return c
}

func (h *harness) eventKinds() []EventKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventKind, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Kind)
	}
	return out
}

func docs(names ...string) *[]Document {
	out := make([]Document, 0, len(names))
	for _, n := range names {
		out = append(out, Document{FileMeta: FileMeta{Name: n, Size: 1024, Type: "text/plain"}, Content: "content of " + n})
	}
	return &out
}

func fullConfig() *GenerationConfig {
	return &GenerationConfig{AIModel: "gpt-4", Template: "modern", Language: "en-us"}
}

// advanceTo walks the controller forward, supplying whatever each step needs.
func (h *harness) advanceTo(t *testing.T, target Step) {
	t.Helper()
	ctx := context.Background()
	for h.ctrl.Snapshot().CurrentStep < target {
		switch h.ctrl.Snapshot().CurrentStep {
		case StepJobDescription:
			h.ctrl.ProposeUpdate(Patch{JobText: StringPtr("Senior Engineer")})
		case StepSourceDocuments:
			h.ctrl.ProposeUpdate(Patch{SourceDocuments: docs("cv.txt")})
		case StepConfiguration:
			h.ctrl.ProposeUpdate(Patch{GenerationConfig: fullConfig()})
		case StepGeneration:
			h.ctrl.ProposeUpdate(Patch{GeneratedResume: StringPtr("# Generated")})
		case StepReview:
			h.ctrl.ProposeUpdate(Patch{FinalResume: StringPtr("# Final")})
		}
		require.NoError(t, h.ctrl.RequestAdvance(ctx))
	}
}
