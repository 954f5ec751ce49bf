package checker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// StaticRegistry holds checkers registered per root and type, used when no
// live tree is selected. Lookups merge all roots in registration order.
type StaticRegistry struct {
	mu     sync.RWMutex
	roots  []string
	byRoot map[string]map[string][]Checker
	logger *slog.Logger
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry(l *slog.Logger) *StaticRegistry {
	if l == nil {
		l = logger.Nop()
	}
	return &StaticRegistry{
		byRoot: make(map[string]map[string][]Checker),
		logger: l,
	}
}

// Register adds c for typeName under rootID. Registering the same checker
// name twice for a type is a no-op. A second checker for one type is kept
// and logged, since only the first one is expected.
func (s *StaticRegistry) Register(rootID, typeName string, c Checker) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	types, ok := s.byRoot[rootID]
	if !ok {
		types = make(map[string][]Checker)
		s.byRoot[rootID] = types
		s.roots = append(s.roots, rootID)
	}
	for _, existing := range types[typeName] {
		if existing.Name() == c.Name() {
			return
		}
	}
	types[typeName] = append(types[typeName], c)
	if n := len(types[typeName]); n > 1 {
		s.logger.Warn("more than one static checker registered for type",
			logger.Root(rootID),
			logger.ObjectType(typeName),
			logger.Checker(c.Name()),
			slog.Int("count", n),
		)
	}
}

// Seed registers every default declared by checkers reachable in tree.
func (s *StaticRegistry) Seed(ctx context.Context, tree *Tree) {
	tree.Walk(ctx, func(c Checker) bool {
		if d, ok := c.(Declarer); ok {
			for _, def := range d.Defaults() {
				s.Register(tree.ID(), def.Type, c)
			}
		}
		return true
	})
}

// Lookup returns checkers for the first candidate type that has any
// registered, merged across roots. With a single root only that root is used.
func (s *StaticRegistry) Lookup(candidates []string, group rbac.CommandGroup) []Checker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range candidates {
		var out []Checker
		seen := make(map[string]struct{})
		for _, root := range s.roots {
			for _, c := range s.byRoot[root][t] {
				if _, dup := seen[c.Name()]; dup {
					continue
				}
				if !group.IsZero() && !c.IsDefaultFor(t, group) && declares(c) {
					continue
				}
				seen[c.Name()] = struct{}{}
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Roots returns the registered root ids in registration order.
func (s *StaticRegistry) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.roots...)
}

// declares reports whether c carries its own default declarations; only
// those can be filtered by group.
func declares(c Checker) bool {
	d, ok := c.(Declarer)
	return ok && len(d.Defaults()) > 0
}
