package audit

import (
	"errors"
	"time"
)

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Actions recorded by the command execution engine.
const (
	ActionExecuted      = "command.executed"
	ActionDenied        = "command.denied"
	ActionNotExecutable = "command.not_executable"
	ActionSuspended     = "command.suspended"
	ActionResumed       = "command.resumed"
	ActionDiscarded     = "command.discarded"
	ActionFailed        = "command.failed"
)

// Event is a single audit log entry.
type Event struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	RequestID  string         `json:"request_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks that the event has all required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return errors.Join(ErrEventValidation, errors.New("action is required"))
	}
	return nil
}

// EventOption adjusts an Event before it is stored.
type EventOption func(*Event)

// WithResource sets the resource type and id.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithMetadata adds a metadata entry.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult overrides the event result.
func WithResult(r Result) EventOption {
	return func(e *Event) {
		e.Result = r
	}
}
