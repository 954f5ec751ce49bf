package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Handler runs the body of a command. Returning a nil result with a nil
// error means success. A handler may return Suspend() to pause the
// invocation until it is resumed.
type Handler interface {
	Handle(ctx context.Context, inv Invocation) (*Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv Invocation) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, inv Invocation) (*Result, error) {
	return f(ctx, inv)
}

// Confirmer is implemented by handlers that decide on confirmation
// themselves. Its answer replaces the configured Confirm flag.
type Confirmer interface {
	NeedsConfirm(s Settings) bool
}

// A handler that also implements Rule contributes its own executability
// check, evaluated before the configured rules.

// Factory builds the handler of a command from its settings.
type Factory func(s Settings) (Handler, error)

// KindNoop names the built-in handler that does nothing.
const KindNoop = "noop"

// Factories maps command kinds to handler factories.
type Factories struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewFactories creates a registry holding the "noop" kind.
func NewFactories() *Factories {
	f := &Factories{factories: make(map[string]Factory)}
	f.Register(KindNoop, func(Settings) (Handler, error) {
		return HandlerFunc(func(context.Context, Invocation) (*Result, error) {
			return Success(), nil
		}), nil
	})
	return f
}

// Register adds or replaces the factory for kind.
func (f *Factories) Register(kind string, factory Factory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factories[kind] = factory
}

// Build creates the handler for s.Kind.
func (f *Factories) Build(s Settings) (Handler, error) {
	f.mu.RLock()
	factory, ok := f.factories[s.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.Join(ErrUnknownKind, fmt.Errorf("kind %q", s.Kind))
	}
	h, err := factory(s)
	if err != nil {
		return nil, fmt.Errorf("build %q handler: %w", s.Kind, err)
	}
	return h, nil
}

// Kinds returns the registered kinds, sorted.
func (f *Factories) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.factories))
	for k := range f.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
