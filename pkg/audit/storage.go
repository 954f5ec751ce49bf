package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/boundsec/pkg/logger"
)

// MemoryStorage keeps events in memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Events returns the stored events, oldest first.
func (s *MemoryStorage) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Actions returns the actions of the stored events, oldest first.
func (s *MemoryStorage) Actions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

// LogStorage writes events to a structured logger.
type LogStorage struct {
	log *slog.Logger
}

func NewLogStorage(l *slog.Logger) *LogStorage {
	if l == nil {
		l = slog.Default()
	}
	return &LogStorage{log: l}
}

func (s *LogStorage) Store(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if e.Result != ResultSuccess {
		level = slog.LevelWarn
	}
	s.log.LogAttrs(ctx, level, "audit",
		slog.String("id", e.ID),
		slog.String("action", e.Action),
		slog.String("result", string(e.Result)),
		logger.UserID(e.UserID),
		slog.String("session_id", e.SessionID),
		slog.String("request_id", e.RequestID),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.String("error", e.Error),
		slog.Any("metadata", e.Metadata),
	)
	return nil
}

func (s *LogStorage) StoreBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if err := s.Store(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
