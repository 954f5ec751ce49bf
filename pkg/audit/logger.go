package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchStorage persists events in bulk. Implementations must store all
// events of a batch or none.
type BatchStorage interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// ContextExtractor reads a value for an event field from the context.
type ContextExtractor func(context.Context) (string, bool)

// Logger records audit events into a Storage.
type Logger struct {
	storage   Storage
	userID    ContextExtractor
	sessionID ContextExtractor
	requestID ContextExtractor
	now       func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

func WithUserIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) { l.userID = fn }
}

func WithSessionIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) { l.sessionID = fn }
}

func WithRequestIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) { l.requestID = fn }
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates an audit logger. It panics on a nil storage.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &Logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records a successful action.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultSuccess, nil, opts)
}

// LogError records a failed action.
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	return l.store(ctx, action, ResultError, err, opts)
}

func (l *Logger) store(ctx context.Context, action string, result Result, err error, opts []EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.NewString()
	event.CreatedAt = l.now()
	event.Action = action
	event.Result = result
	if err != nil {
		event.Error = err.Error()
	}
	for _, opt := range opts {
		opt(&event)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func (l *Logger) eventFromContext(ctx context.Context) Event {
	var event Event
	if l.userID != nil {
		if v, ok := l.userID(ctx); ok {
			event.UserID = v
		}
	}
	if l.sessionID != nil {
		if v, ok := l.sessionID(ctx); ok {
			event.SessionID = v
		}
	}
	if l.requestID != nil {
		if v, ok := l.requestID(ctx); ok {
			event.RequestID = v
		}
	}
	return event
}
