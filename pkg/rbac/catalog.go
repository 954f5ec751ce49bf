package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// RoleCatalog holds role definitions with their inheritance closure
// precomputed. It is immutable after construction and safe for concurrent use.
type RoleCatalog struct {
	roles map[string]Role
	// implied contains every role a role implies, itself included, sorted.
	implied map[string][]string
	// sortedRoles lists all roles sorted by inheritance (base roles first).
	sortedRoles []string
}

// NewRoleCatalog loads roles from the source, rejects circular or too deep
// inheritance and precomputes the implied role sets.
func NewRoleCatalog(ctx context.Context, source RoleSource) (*RoleCatalog, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = make(map[string]Role)
	}

	if err := validateRoleInheritance(roles); err != nil {
		return nil, err
	}

	implied := make(map[string][]string, len(roles))
	for name := range roles {
		implied[name] = normalizeRoles(impliedRoles(name, roles, make(map[string]bool), 0))
	}

	return &RoleCatalog{
		roles:       roles,
		implied:     implied,
		sortedRoles: sortRolesByInheritance(roles),
	}, nil
}

// Role returns the definition of a role.
func (c *RoleCatalog) Role(name string) (Role, error) {
	r, ok := c.roles[name]
	if !ok {
		return Role{}, errors.Join(ErrInvalidRole, fmt.Errorf("role %q", name))
	}
	return r, nil
}

// Roles returns all role names sorted by inheritance (base roles first).
func (c *RoleCatalog) Roles() []string {
	return slices.Clone(c.sortedRoles)
}

// Expand returns the held roles plus everything they imply, restricted to
// roles that cover typeName. A held role that does not cover typeName
// contributes nothing. Unknown role names are kept as global roles.
func (c *RoleCatalog) Expand(held []string, typeName string) []string {
	var out []string
	for _, name := range held {
		implied, ok := c.implied[name]
		if !ok {
			out = append(out, name)
			continue
		}
		if !c.roles[name].Covers(typeName) {
			continue
		}
		for _, r := range implied {
			if c.roles[r].Covers(typeName) {
				out = append(out, r)
			}
		}
	}
	return normalizeRoles(out)
}

// impliedRoles recursively collects a role and the roles it inherits.
func impliedRoles(roleName string, roles map[string]Role, visited map[string]bool, depth int) []string {
	if depth > MaxInheritanceDepth || visited[roleName] {
		return nil
	}
	visited[roleName] = true

	role, exists := roles[roleName]
	if !exists {
		return nil
	}

	result := []string{roleName}
	for _, inherited := range role.Inherits {
		result = append(result, impliedRoles(inherited, roles, visited, depth+1)...)
	}
	return result
}

// sortRolesByInheritance returns role names sorted by inheritance depth, then name.
func sortRolesByInheritance(roles map[string]Role) []string {
	depths := make(map[string]int)
	visited := make(map[string]bool)
	for name := range roles {
		if !visited[name] {
			roleDepth(name, roles, depths, visited, make(map[string]bool))
		}
	}

	result := make([]string, 0, len(roles))
	for name := range roles {
		result = append(result, name)
	}
	slices.SortFunc(result, func(a, b string) int {
		if d := depths[a] - depths[b]; d != 0 {
			return d
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return result
}

// roleDepth computes the inheritance depth of a role using DFS.
func roleDepth(roleName string, roles map[string]Role, depths map[string]int, visited, inProcess map[string]bool) int {
	if visited[roleName] {
		return depths[roleName]
	}
	if inProcess[roleName] {
		return 0
	}
	inProcess[roleName] = true
	defer func() { inProcess[roleName] = false }()

	maxDepth := 0
	if role, ok := roles[roleName]; ok {
		for _, inherited := range role.Inherits {
			if d := roleDepth(inherited, roles, depths, visited, inProcess) + 1; d > maxDepth {
				maxDepth = d
			}
		}
	}

	depths[roleName] = maxDepth
	visited[roleName] = true
	return maxDepth
}

// validateRoleInheritance checks for circular dependencies and excessive depth.
func validateRoleInheritance(roles map[string]Role) error {
	for name := range roles {
		if err := checkCircularInheritance(name, roles, []string{name}); err != nil {
			return err
		}
	}

	depths := make(map[string]int)
	visited := make(map[string]bool)
	for name := range roles {
		if visited[name] {
			continue
		}
		if d := roleDepth(name, roles, depths, visited, make(map[string]bool)); d > MaxInheritanceDepth {
			return errors.Join(ErrCircularInheritance,
				fmt.Errorf("inheritance depth exceeds maximum allowed depth of %d", MaxInheritanceDepth))
		}
	}
	return nil
}

func checkCircularInheritance(roleName string, roles map[string]Role, path []string) error {
	role, exists := roles[roleName]
	if !exists {
		return nil
	}
	for _, inherited := range role.Inherits {
		if slices.Contains(path, inherited) {
			return errors.Join(ErrCircularInheritance,
				fmt.Errorf("circular inheritance detected: %s -> %s", roleName, inherited))
		}
		if err := checkCircularInheritance(inherited, roles, append(slices.Clone(path), inherited)); err != nil {
			return err
		}
	}
	return nil
}
