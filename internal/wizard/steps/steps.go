// Package steps holds the six wizard step handlers and a registry addressing them by index.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizard"
)

// ErrStepMismatch is returned when input targets a step other than the current one.
var ErrStepMismatch = errors.New("step is not the current step")

// Registry addresses step handlers by step number.
type Registry struct {
	handlers map[wizard.Step]wizard.StepHandler
}

// NewRegistry builds the six handlers. The catalog validates configuration choices.
func NewRegistry(catalog *templates.Catalog) *Registry {
	r := &Registry{handlers: make(map[wizard.Step]wizard.StepHandler)}
	for _, h := range []wizard.StepHandler{
		JobDescription{},
		SourceDocuments{},
		Configuration{Catalog: catalog},
		Generation{},
		Review{},
		Export{},
	} {
		r.handlers[h.Step()] = h
	}
	return r
}

// Handler returns the handler for step.
func (r *Registry) Handler(step wizard.Step) (wizard.StepHandler, bool) {
	h, ok := r.handlers[step]
	return h, ok
}

// Submit applies input to the current step and optionally requests the next one.
func (r *Registry) Submit(ctx context.Context, ctrl *wizard.Controller, step wizard.Step, input json.RawMessage, next bool) error {
	h, ok := r.Handler(step)
	if !ok {
		return fmt.Errorf("%w: unknown step %d", wizard.ErrInvalidInput, step)
	}
	sc := ctrl.StepContext()
	if current := sc.Data().CurrentStep; current != step {
		return fmt.Errorf("%w: session is at step %d", ErrStepMismatch, current)
	}
	if err := h.Apply(ctx, sc, input); err != nil {
		return err
	}
	if next {
		return sc.Next(ctx)
	}
	return nil
}

func decode(input json.RawMessage, v any) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		input = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", wizard.ErrInvalidInput, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{wizard.ErrInvalidInput}, args...)...)
}
