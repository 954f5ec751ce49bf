package dialog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/boundsec/pkg/command"
)

// Host is a component that owns dialogs.
type Host interface {
	// OpenDialog shows the named dialog with the model and arguments of the
	// opening invocation.
	OpenDialog(ctx context.Context, name string, model any, args command.Args) error
	CloseDialog(ctx context.Context, name string) error
	// HasDialog reports whether name is one of the host's dialogs.
	HasDialog(name string) bool
}

// State is an open dialog.
type State struct {
	Name  string
	Model any
	Args  command.Args
}

// Set is a Host implementation tracking declared and open dialogs.
// Components embed it. It is safe for concurrent use.
type Set struct {
	mu       sync.RWMutex
	declared map[string]struct{}
	open     map[string]State
}

// NewSet creates a set declaring the given dialogs.
func NewSet(names ...string) *Set {
	s := &Set{
		declared: make(map[string]struct{}, len(names)),
		open:     make(map[string]State),
	}
	for _, n := range names {
		s.declared[n] = struct{}{}
	}
	return s
}

func (s *Set) OpenDialog(_ context.Context, name string, model any, args command.Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.declared[name]; !ok {
		return errors.Join(ErrUnknownDialog, fmt.Errorf("dialog %q", name))
	}
	s.open[name] = State{Name: name, Model: model, Args: args.With(nil)}
	return nil
}

func (s *Set) CloseDialog(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.open[name]; !ok {
		return errors.Join(ErrNotOpen, fmt.Errorf("dialog %q", name))
	}
	delete(s.open, name)
	return nil
}

func (s *Set) HasDialog(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.declared[name]
	return ok
}

// Names returns the declared dialogs, sorted.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.declared))
}

// Open returns the state of an open dialog.
func (s *Set) Open(name string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.open[name]
	return st, ok
}

// OpenNames returns the open dialogs, sorted.
func (s *Set) OpenNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.open))
}
