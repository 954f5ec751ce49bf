package rbac

import (
	"errors"
	"fmt"
	"sync"
)

// GroupType is the coarse classification every command group belongs to.
type GroupType string

const (
	TypeRead   GroupType = "read"
	TypeWrite  GroupType = "write"
	TypeDelete GroupType = "delete"
	TypeSystem GroupType = "system"
)

// ParseGroupType converts a configuration string into a GroupType.
func ParseGroupType(s string) (GroupType, error) {
	switch t := GroupType(s); t {
	case TypeRead, TypeWrite, TypeDelete, TypeSystem:
		return t, nil
	default:
		return "", errors.Join(ErrInvalidGroup, fmt.Errorf("unknown group type %q", s))
	}
}

// CommandGroup classifies an action. The zero value stands for "any group".
type CommandGroup struct {
	Name string
	Type GroupType
}

// Predefined command groups available in every registry.
var (
	Read   = CommandGroup{Name: "read", Type: TypeRead}
	Write  = CommandGroup{Name: "write", Type: TypeWrite}
	Delete = CommandGroup{Name: "delete", Type: TypeDelete}
	System = CommandGroup{Name: "system", Type: TypeSystem}
)

// IsSystem reports whether the group is exempt from role checks.
func (g CommandGroup) IsSystem() bool {
	return g.Type == TypeSystem
}

// IsZero reports whether g is the "any group" value.
func (g CommandGroup) IsZero() bool {
	return g.Name == ""
}

func (g CommandGroup) String() string {
	if g.IsZero() {
		return "*"
	}
	return g.Name
}

// GroupRegistry holds the named command groups of a deployment.
// It is filled at boot and frozen afterwards.
type GroupRegistry struct {
	mu     sync.RWMutex
	groups map[string]CommandGroup
	order  []string
	frozen bool
}

// NewGroupRegistry returns a registry seeded with Read, Write, Delete and System.
func NewGroupRegistry() *GroupRegistry {
	r := &GroupRegistry{groups: make(map[string]CommandGroup)}
	for _, g := range []CommandGroup{Read, Write, Delete, System} {
		r.groups[g.Name] = g
		r.order = append(r.order, g.Name)
	}
	return r
}

// Register adds a named group of the given type. Re-registering an existing
// group with the same type is a no-op.
func (r *GroupRegistry) Register(name string, t GroupType) (CommandGroup, error) {
	if name == "" {
		return CommandGroup{}, errors.Join(ErrInvalidGroup, errors.New("empty group name"))
	}
	if _, err := ParseGroupType(string(t)); err != nil {
		return CommandGroup{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.groups[name]; ok {
		if existing.Type != t {
			return CommandGroup{}, errors.Join(ErrDuplicateGroup,
				fmt.Errorf("group %q already registered as %s", name, existing.Type))
		}
		return existing, nil
	}
	if r.frozen {
		return CommandGroup{}, ErrRegistryFrozen
	}
	if t == TypeSystem {
		return CommandGroup{}, errors.Join(ErrInvalidGroup, fmt.Errorf("group %q: only one system group may exist", name))
	}

	g := CommandGroup{Name: name, Type: t}
	r.groups[name] = g
	r.order = append(r.order, name)
	return g, nil
}

// Lookup returns the group registered under name.
func (r *GroupRegistry) Lookup(name string) (CommandGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[name]
	if !ok {
		return CommandGroup{}, errors.Join(ErrUnknownGroup, fmt.Errorf("command group %q", name))
	}
	return g, nil
}

// Freeze rejects all later registrations.
func (r *GroupRegistry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// All returns the groups in registration order.
func (r *GroupRegistry) All() []CommandGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CommandGroup, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.groups[name])
	}
	return out
}
