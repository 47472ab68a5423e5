package wizard

import (
	"context"
	"encoding/json"
)

// StepContext is what a step handler sees of the controller: a copy of the
// session, a way to propose changes and a way to request the next step.
type StepContext interface {
	Data() Session
	Update(p Patch)
	Next(ctx context.Context) error
}

// GenerationStarter is implemented by step contexts that can launch generation.
type GenerationStarter interface {
	StartGeneration() error
}

// StepHandler turns raw input for one step into session patches.
type StepHandler interface {
	Step() Step
	Title() string
	Apply(ctx context.Context, sc StepContext, input json.RawMessage) error
}

// StepContext returns the handler-facing view of c.
func (c *Controller) StepContext() StepContext {
	return controllerContext{c: c}
}

type controllerContext struct {
	c *Controller
}

func (sc controllerContext) Data() Session                  { return sc.c.Snapshot() }
func (sc controllerContext) Update(p Patch)                 { sc.c.ProposeUpdate(p) }
func (sc controllerContext) Next(ctx context.Context) error { return sc.c.RequestAdvance(ctx) }
func (sc controllerContext) StartGeneration() error         { return sc.c.StartGeneration() }
