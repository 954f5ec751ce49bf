package secobject

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownProvider is returned for provider names that were never registered.
var ErrUnknownProvider = errors.New("secobject.unknown_provider")

// Constructor builds a provider for a configuration entry.
type Constructor func() Provider

// Registry maps provider names used in configuration to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates a registry with the built-in providers registered as
// "null", "model", "parent" and "default".
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("null", func() Provider { return Null })
	r.Register("model", func() Provider { return Model })
	r.Register("parent", func() Provider { return Parent })
	r.Register("default", func() Provider { return Default })
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
}

// Lookup builds the provider registered as name. An empty name selects the
// default provider.
func (r *Registry) Lookup(name string) (Provider, error) {
	if name == "" {
		name = "default"
	}
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Join(ErrUnknownProvider, fmt.Errorf("provider %q", name))
	}
	return ctor(), nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for n := range r.ctors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
