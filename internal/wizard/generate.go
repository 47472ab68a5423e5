package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

// GenerationStatus is the lifecycle of a generation run.
type GenerationStatus string

const (
	GenerationIdle     GenerationStatus = "idle"
	GenerationRunning  GenerationStatus = "generating"
	GenerationComplete GenerationStatus = "complete"
)

// GenerationState reports the current or last generation run. Error is set
// when the last run failed and the status went back to idle.
type GenerationState struct {
	Status     GenerationStatus
	Phase      int
	Total      int
	Task       string
	Percent    float64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

var errNoGenerator = errors.New("wizard: no generator configured")

// StartGeneration launches the generator in the background. It is only
// available at the Generation step and refuses to overlap a running job.
// Once started the run cannot be cancelled; it is bounded by its own timeout.
func (c *Controller) StartGeneration() error {
	c.mu.Lock()
	defer c.unlockAndDispatch()
	switch {
	case c.closed:
		return ErrClosed
	case c.generator == nil:
		return errNoGenerator
	case c.session.CurrentStep != StepGeneration:
		return fmt.Errorf("%w: generation runs at step %d, session is at step %d", ErrWrongStep, StepGeneration, c.session.CurrentStep)
	case c.generation.Status == GenerationRunning:
		return ErrGenerationInProgress
	}

	in := generationInput(c.session)
	now := c.clock.Now()
	c.generation = GenerationState{
		Status:    GenerationRunning,
		Total:     len(generation.Phases),
		StartedAt: now,
	}
	c.generationErr = nil
	done := make(chan struct{})
	c.generationDone = done
	c.lastActive = now

	metrics.IncGenerationStarted()
	telemetry.Info("wizard.generation.started", map[string]any{
		"wizard_key": c.key,
		"resume_id":  c.session.SessionID,
		"model":      in.Config.AIModel,
		"template":   in.Config.Template,
		"documents":  len(in.SourceDocuments),
	})
	go c.runGeneration(in, done)
	return nil
}

// WaitGeneration blocks until the current run settles and returns its error.
func (c *Controller) WaitGeneration(ctx context.Context) error {
	if err := c.waitGeneration(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationErr
}

// Generate starts a run and waits for it.
func (c *Controller) Generate(ctx context.Context) error {
	if err := c.StartGeneration(); err != nil {
		return err
	}
	return c.WaitGeneration(ctx)
}

func (c *Controller) waitGeneration(ctx context.Context) error {
	c.mu.Lock()
	done := c.generationDone
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) runGeneration(in generation.Input, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), c.generationTimeout)
	defer cancel()
	started := time.Now()
	content, err := c.generator.Generate(ctx, in, c.onGenerationProgress)
	metrics.ObserveGenerationDurationMs(float64(time.Since(started).Milliseconds()))
	if err == nil && strings.TrimSpace(content) == "" {
		err = fmt.Errorf("%w: empty content", generation.ErrGenerationFailed)
	}

	c.mu.Lock()
	defer c.unlockAndDispatch()
	c.generation.FinishedAt = c.clock.Now()
	if err != nil {
		c.generation.Status = GenerationIdle
		c.generation.Error = err.Error()
		c.generationErr = err
		metrics.IncGenerationFailed()
		telemetry.Warn("wizard.generation.failed", map[string]any{"wizard_key": c.key, "error": err.Error()})
		c.emitLocked(Event{Kind: EventGenerationFailed, Message: err.Error(), Err: err})
		return
	}

	c.generation.Status = GenerationComplete
	c.generation.Phase = c.generation.Total
	c.generation.Percent = 100
	c.generation.Error = ""
	metrics.IncGenerationCompleted()
	telemetry.Info("wizard.generation.completed", map[string]any{
		"wizard_key":  c.key,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if !c.closed {
		c.proposeLocked(Patch{GeneratedResume: &content})
	}
	c.emitLocked(Event{Kind: EventGenerationCompleted})
}

func (c *Controller) onGenerationProgress(p generation.Progress) {
	c.mu.Lock()
	defer c.unlockAndDispatch()
	if c.generation.Status != GenerationRunning || p.Percent < c.generation.Percent {
		return
	}
	c.generation.Phase = p.Phase
	c.generation.Total = p.Total
	c.generation.Task = p.Task
	c.generation.Percent = p.Percent
	c.emitLocked(Event{Kind: EventGenerationProgress, Message: p.Task, Progress: &p})
}

func generationInput(s Session) generation.Input {
	in := generation.Input{
		JobDescription: s.JobText,
		Config: generation.Config{
			AIModel:  s.GenerationConfig.AIModel,
			Template: s.GenerationConfig.Template,
			Language: s.GenerationConfig.Language,
			Emphasis: append([]string(nil), s.GenerationConfig.Emphasis...),
		},
	}
	if s.JobFile != nil {
		in.JobFileName = s.JobFile.Name
	}
	if s.GenerationConfig.WordLimit != nil {
		wl := *s.GenerationConfig.WordLimit
		in.Config.WordLimit = &wl
	}
	for _, d := range s.SourceDocuments {
		in.SourceDocuments = append(in.SourceDocuments, generation.Document{
			Name:    d.Name,
			Type:    d.Type,
			Size:    d.Size,
			Content: d.Content,
		})
	}
	return in
}
