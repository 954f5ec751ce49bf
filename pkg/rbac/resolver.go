package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// RestrictionPolicy reports whether a user may use a command group at all,
// before any role is consulted.
type RestrictionPolicy func(u *User, g CommandGroup) bool

// DefaultRestriction lets restricted users use READ and SYSTEM groups only.
func DefaultRestriction(u *User, g CommandGroup) bool {
	if !u.Restricted {
		return true
	}
	return g.Type == TypeRead || g.Type == TypeSystem
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRoleCatalog expands held roles through role inheritance and scopes.
func WithRoleCatalog(c *RoleCatalog) ResolverOption {
	return func(r *Resolver) { r.catalog = c }
}

// WithDefaultObject sets the global object consulted last in every security chain.
func WithDefaultObject(obj Object) ResolverOption {
	return func(r *Resolver) { r.defaultObject = obj }
}

// WithRestrictionPolicy replaces DefaultRestriction.
func WithRestrictionPolicy(p RestrictionPolicy) ResolverOption {
	return func(r *Resolver) {
		if p != nil {
			r.restriction = p
		}
	}
}

// WithLogger sets the logger used for swallowed lookup errors.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver decides whether a user may use a command group on an object.
// It never panics on nil users or objects and never returns lookup errors
// from Allow: a failed lookup denies.
type Resolver struct {
	assignments   Assignments
	requirements  Requirements
	catalog       *RoleCatalog
	defaultObject Object
	restriction   RestrictionPolicy
	logger        *slog.Logger
}

// NewResolver creates a Resolver over the given assignment and requirement APIs.
func NewResolver(assignments Assignments, requirements Requirements, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		assignments:  assignments,
		requirements: requirements,
		restriction:  DefaultRestriction,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allow applies, in order: nil object allows, nil user denies, system group
// allows, admin allows, restriction policy, then role membership against the
// roles required for the group on the object.
func (r *Resolver) Allow(ctx context.Context, u *User, obj Object, g CommandGroup) bool {
	return r.allow(ctx, u, obj, g, nil, false)
}

// AllowWithRoles is Allow with the required roles supplied by the caller,
// typically a checker's own role configuration.
func (r *Resolver) AllowWithRoles(ctx context.Context, u *User, obj Object, g CommandGroup, required []string) bool {
	return r.allow(ctx, u, obj, g, required, true)
}

// Check is Allow returning ErrPermissionDenied on denial.
func (r *Resolver) Check(ctx context.Context, u *User, obj Object, g CommandGroup) error {
	if r.Allow(ctx, u, obj, g) {
		return nil
	}
	return errors.Join(ErrPermissionDenied, fmt.Errorf("group %s", g))
}

// CheckFromContext is Check for the user stored in the context.
func (r *Resolver) CheckFromContext(ctx context.Context, obj Object, g CommandGroup) error {
	u, ok := UserFromContext(ctx)
	if !ok && !IsNil(obj) {
		return errors.Join(ErrUserNotInContext, ErrPermissionDenied)
	}
	return r.Check(ctx, u, obj, g)
}

// Filter returns the objects the user may use the group on, order preserved.
func (r *Resolver) Filter(ctx context.Context, u *User, objs []Object, g CommandGroup) []Object {
	out := make([]Object, 0, len(objs))
	for _, o := range objs {
		if r.Allow(ctx, u, o, g) {
			out = append(out, o)
		}
	}
	return out
}

// HasAnyRole reports whether the user effectively holds any of roles on obj.
func (r *Resolver) HasAnyRole(ctx context.Context, u *User, obj Object, roles []string) bool {
	if u == nil || IsNil(obj) {
		return false
	}
	held, err := r.EffectiveRoles(ctx, u, obj)
	if err != nil {
		r.logger.WarnContext(ctx, "role lookup failed",
			slog.String("user_id", u.ID), slog.String("object_type", obj.TypeName()), slog.Any("error", err))
		return false
	}
	return intersects(held, normalizeRoles(roles))
}

func (r *Resolver) allow(ctx context.Context, u *User, obj Object, g CommandGroup, override []string, overridden bool) bool {
	switch {
	case IsNil(obj):
		return true
	case u == nil:
		return false
	case g.IsSystem():
		return true
	case u.Admin:
		return true
	case !r.restriction(u, g):
		return false
	}

	cache := requestCacheFrom(ctx)
	key := decisionKey(u, obj, g, override, overridden)
	if allowed, ok := cache.decision(key); ok {
		return allowed
	}

	allowed := r.decide(ctx, u, obj, g, override, overridden)
	cache.storeDecision(key, allowed)
	return allowed
}

func (r *Resolver) decide(ctx context.Context, u *User, obj Object, g CommandGroup, override []string, overridden bool) bool {
	required := normalizeRoles(override)
	if !overridden {
		roles, err := r.requirements.RolesAllowedFor(ctx, obj, g)
		if err != nil {
			r.logger.WarnContext(ctx, "role requirement lookup failed",
				slog.String("object_type", obj.TypeName()), slog.String("command_group", g.String()), slog.Any("error", err))
			return false
		}
		required = normalizeRoles(roles)
	}
	if len(required) == 0 {
		return false
	}

	held, err := r.EffectiveRoles(ctx, u, obj)
	if err != nil {
		r.logger.WarnContext(ctx, "role lookup failed",
			slog.String("user_id", u.ID), slog.String("object_type", obj.TypeName()), slog.Any("error", err))
		return false
	}
	return intersects(held, required)
}

// EffectiveRoles returns the sorted union of roles the user holds on obj:
// local roles, roles on the security parent chain up to the default object,
// and roles of every group the user belongs to, directly or through nested
// groups, on the same chain. Roles are expanded by the role catalog if set.
func (r *Resolver) EffectiveRoles(ctx context.Context, u *User, obj Object) ([]string, error) {
	if u == nil || IsNil(obj) {
		return nil, nil
	}

	cache := requestCacheFrom(ctx)
	key := u.ID + "|" + objectKey(obj)
	if roles, ok := cache.roles(key); ok {
		return roles, nil
	}

	chain := securityChain(obj, r.defaultObject)

	var held []string
	for _, o := range chain {
		roles, err := r.assignments.RolesOf(ctx, u.ID, o)
		if err != nil {
			return nil, err
		}
		held = append(held, roles...)
	}

	groups, err := r.groupsOf(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		for _, o := range chain {
			roles, err := r.assignments.GroupRolesOf(ctx, group, o)
			if err != nil {
				return nil, err
			}
			held = append(held, roles...)
		}
	}

	if r.catalog != nil {
		held = r.catalog.Expand(held, obj.TypeName())
	} else {
		held = normalizeRoles(held)
	}

	cache.storeRoles(key, held)
	return held, nil
}

// groupsOf returns the transitive group memberships of a member, breadth first.
func (r *Resolver) groupsOf(ctx context.Context, memberID string) ([]string, error) {
	var out []string
	seen := map[string]struct{}{memberID: {}}
	queue := []string{memberID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		groups, err := r.assignments.GroupsOf(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
			queue = append(queue, g)
		}
	}
	return out, nil
}

func decisionKey(u *User, obj Object, g CommandGroup, override []string, overridden bool) string {
	var b strings.Builder
	b.WriteString(u.ID)
	b.WriteByte('|')
	b.WriteString(objectKey(obj))
	b.WriteByte('|')
	b.WriteString(g.Name)
	if overridden {
		b.WriteString("|roles=")
		b.WriteString(strings.Join(normalizeRoles(override), ","))
	}
	return b.String()
}
