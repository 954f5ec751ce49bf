package checker

import (
	"context"
	"slices"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// Checker is a component that authorizes commands against objects.
// Checkers refer to each other by name only; a Tree resolves the names.
type Checker interface {
	Name() string
	// IsDefaultFor reports whether the checker is authoritative for objects of
	// typeName and the group. A zero group asks for any group.
	IsDefaultFor(typeName string, group rbac.CommandGroup) bool
	// Children returns the names of sub-checkers and attached dialogs in declaration order.
	Children() []string
	Allow(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) bool
}

// Declarer is implemented by checkers that can list their default declarations.
type Declarer interface {
	Defaults() []Default
}

// PermissionResolver is the subset of *rbac.Resolver a Component needs.
type PermissionResolver interface {
	Allow(ctx context.Context, u *rbac.User, obj rbac.Object, g rbac.CommandGroup) bool
	AllowWithRoles(ctx context.Context, u *rbac.User, obj rbac.Object, g rbac.CommandGroup, roles []string) bool
}

// Default declares a checker authoritative for a type and command group.
// An empty or "*" Group covers every group.
type Default struct {
	Type  string
	Group string
}

func (d Default) matches(typeName string, group rbac.CommandGroup) bool {
	if d.Type != typeName {
		return false
	}
	return group.IsZero() || d.Group == "" || d.Group == wildcard || d.Group == group.Name
}

// Component is a concrete checker, optionally containing sub-checkers and dialogs.
type Component struct {
	name     string
	defaults []Default
	children []string
	dialogs  []string
	roles    map[string][]string
	resolver PermissionResolver
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// DefaultFor declares the component authoritative for typeName and the given
// groups; without groups it covers every group.
func DefaultFor(typeName string, groups ...string) ComponentOption {
	return func(c *Component) {
		if len(groups) == 0 {
			c.defaults = append(c.defaults, Default{Type: typeName, Group: wildcard})
			return
		}
		for _, g := range groups {
			c.defaults = append(c.defaults, Default{Type: typeName, Group: g})
		}
	}
}

// WithChildren adds sub-checker names.
func WithChildren(names ...string) ComponentOption {
	return func(c *Component) { c.children = append(c.children, names...) }
}

// WithDialogs adds names of dialogs attached to the component.
func WithDialogs(names ...string) ComponentOption {
	return func(c *Component) { c.dialogs = append(c.dialogs, names...) }
}

// WithRoles makes the component require roles for the group itself instead
// of asking the role requirement API.
func WithRoles(group string, roles ...string) ComponentOption {
	return func(c *Component) {
		if c.roles == nil {
			c.roles = make(map[string][]string)
		}
		c.roles[group] = append(c.roles[group], roles...)
	}
}

// NewComponent creates a checker component authorizing through resolver.
func NewComponent(name string, resolver PermissionResolver, opts ...ComponentOption) *Component {
	c := &Component{name: name, resolver: resolver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Component) Name() string { return c.name }

func (c *Component) IsDefaultFor(typeName string, group rbac.CommandGroup) bool {
	for _, d := range c.defaults {
		if d.matches(typeName, group) {
			return true
		}
	}
	return false
}

// Children returns sub-checkers followed by dialogs.
func (c *Component) Children() []string {
	return append(slices.Clone(c.children), c.dialogs...)
}

// Defaults returns the component's default declarations.
func (c *Component) Defaults() []Default {
	return slices.Clone(c.defaults)
}

func (c *Component) Allow(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) bool {
	if c.resolver == nil {
		return rbac.IsNil(obj)
	}
	if roles, ok := c.roles[group.Name]; ok {
		return c.resolver.AllowWithRoles(ctx, u, obj, group, roles)
	}
	return c.resolver.Allow(ctx, u, obj, group)
}

// Lookup resolves checker names.
type Lookup interface {
	Lookup(name string) (Checker, bool)
	// Follow resolves name through proxies to a concrete checker.
	Follow(name string) (Checker, error)
}

// Proxy delegates authorization to another checker of the same tree.
// Its target is reached through the tree it is installed in.
type Proxy struct {
	name     string
	target   string
	defaults []Default
	lookup   Lookup
}

// NewProxy creates a proxy named name delegating to target.
func NewProxy(name, target string, defaults ...Default) *Proxy {
	return &Proxy{name: name, target: target, defaults: defaults}
}

func (p *Proxy) Name() string   { return p.name }
func (p *Proxy) Target() string { return p.target }

func (p *Proxy) IsDefaultFor(typeName string, group rbac.CommandGroup) bool {
	for _, d := range p.defaults {
		if d.matches(typeName, group) {
			return true
		}
	}
	return false
}

// Children returns the target, so walks continue through the delegate.
func (p *Proxy) Children() []string { return []string{p.target} }

func (p *Proxy) Defaults() []Default { return slices.Clone(p.defaults) }

// Allow asks the resolved target. An unbound or dangling proxy denies
// unless there is nothing to protect.
func (p *Proxy) Allow(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) bool {
	if p.lookup == nil {
		return rbac.IsNil(obj)
	}
	target, err := p.lookup.Follow(p.name)
	if err != nil {
		return rbac.IsNil(obj)
	}
	return target.Allow(ctx, u, obj, group)
}

func (p *Proxy) bind(l Lookup) { p.lookup = l }

type binder interface {
	bind(Lookup)
}
