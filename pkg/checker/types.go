package checker

import (
	"slices"
	"sync"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// CheckerTyped lets an object name the checker type it is authorized as,
// ahead of its own type and supertypes.
type CheckerTyped interface {
	CheckerType() string
}

// TypeGraph records the supertype relation of model types and aliases from
// model types to the type names checkers declare defaults for.
type TypeGraph struct {
	mu      sync.RWMutex
	supers  map[string][]string
	aliases map[string]string
}

// NewTypeGraph creates an empty type graph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		supers:  make(map[string][]string),
		aliases: make(map[string]string),
	}
}

// Declare records the direct supertypes of typeName in order. Repeated
// declarations append new supertypes.
func (g *TypeGraph) Declare(typeName string, supers ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range supers {
		if s == "" || s == typeName || slices.Contains(g.supers[typeName], s) {
			continue
		}
		g.supers[typeName] = append(g.supers[typeName], s)
	}
	if _, ok := g.supers[typeName]; !ok {
		g.supers[typeName] = nil
	}
}

// Alias maps a model type to the checker type name used for default lookup.
func (g *TypeGraph) Alias(typeName, checkerType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aliases[typeName] = checkerType
}

// Supertypes returns the direct supertypes of typeName.
func (g *TypeGraph) Supertypes(typeName string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.supers[typeName])
}

// Candidates returns the checker type names for subject, most specific first.
// subject may be an rbac.Object, anything with a TypeName method, or a type
// name. A CheckerTyped subject contributes its checker type first.
func (g *TypeGraph) Candidates(subject any) []string {
	var out []string
	if ct, ok := subject.(CheckerTyped); ok && ct.CheckerType() != "" {
		out = append(out, ct.CheckerType())
	}
	typeName := TypeNameOf(subject)
	if typeName == "" {
		return out
	}

	seen := make(map[string]bool, len(out))
	for _, t := range out {
		seen[t] = true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t := range g.topo(typeName) {
		if alias, ok := g.aliases[t]; ok {
			t = alias
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// topo orders typeName and its transitive supertypes so every type precedes
// its supertypes. Ties keep declaration order. Members of a cycle are
// appended in discovery order.
func (g *TypeGraph) topo(typeName string) []string {
	var reachable []string
	seen := map[string]bool{typeName: true}
	queue := []string{typeName}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		reachable = append(reachable, t)
		for _, s := range g.supers[t] {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}

	indegree := make(map[string]int, len(reachable))
	for _, t := range reachable {
		for _, s := range g.supers[t] {
			indegree[s]++
		}
	}

	ordered := make([]string, 0, len(reachable))
	done := make(map[string]bool, len(reachable))
	var ready []string
	for _, t := range reachable {
		if indegree[t] == 0 {
			ready = append(ready, t)
		}
	}
	for len(ready) > 0 {
		t := ready[0]
		ready = ready[1:]
		ordered = append(ordered, t)
		done[t] = true
		for _, s := range g.supers[t] {
			indegree[s]--
			if indegree[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	for _, t := range reachable {
		if !done[t] {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

type typeNamer interface {
	TypeName() string
}

// TypeNameOf returns the type name of a subject, or "" when it has none.
func TypeNameOf(subject any) string {
	switch s := subject.(type) {
	case nil:
		return ""
	case string:
		return s
	case rbac.Object:
		return s.TypeName()
	case typeNamer:
		return s.TypeName()
	}
	return ""
}
