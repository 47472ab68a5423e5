package wizard

import "resume-wizard/internal/generation"

// EventKind names a controller notification.
type EventKind string

const (
	EventStepChanged         EventKind = "step_changed"
	EventDataChanged         EventKind = "data_changed"
	EventValidationFailed    EventKind = "validation_failed"
	EventSyncStarted         EventKind = "sync_started"
	EventSyncSucceeded       EventKind = "sync_succeeded"
	EventSyncFailed          EventKind = "sync_failed"
	EventGenerationProgress  EventKind = "generation_progress"
	EventGenerationCompleted EventKind = "generation_completed"
	EventGenerationFailed    EventKind = "generation_failed"
	EventRestoreWarning      EventKind = "restore_warning"
)

// Event is published to the Observer after the controller releases its lock.
type Event struct {
	Kind     EventKind
	Key      string
	Step     Step
	Message  string
	Progress *generation.Progress
	Err      error
}

// Observer receives controller events. It must not block for long.
type Observer func(Event)
