package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminalStep is returned when advancing past the last step.
	ErrTerminalStep = errors.New("already at the last step")

	// ErrWrongStep is returned when an operation is not available at the current step.
	ErrWrongStep = errors.New("operation not available at this step")

	// ErrGenerationInProgress is returned when a generation is already running.
	ErrGenerationInProgress = errors.New("generation already in progress")

	// ErrInvalidInput indicates step input that cannot be applied.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed is returned by a controller after Close or Discard.
	ErrClosed = errors.New("wizard session closed")

	// ErrSessionNotFound is returned when a key is neither live nor saved.
	ErrSessionNotFound = errors.New("wizard session not found")

	// ErrSnapshotUnavailable is returned when the snapshot store cannot be read.
	// The session is not opened, so the saved snapshot is left untouched.
	ErrSnapshotUnavailable = errors.New("wizard snapshot store unavailable")

	// ErrNotPersisted is returned when an operation needs a persisted resume and none exists yet.
	ErrNotPersisted = errors.New("resume not persisted yet")
)

// ValidationError names the requirement that blocks leaving Step.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Step.Title(), e.Message)
}
