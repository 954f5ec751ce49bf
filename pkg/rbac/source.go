package rbac

import "context"

// RoleSource provides role definitions.
type RoleSource interface {
	// Load returns all roles keyed by name.
	Load(ctx context.Context) (map[string]Role, error)
}

// Assignments is the read-only role assignment API consumed by the Resolver.
type Assignments interface {
	// RolesOf returns the roles the user holds directly on obj.
	RolesOf(ctx context.Context, userID string, obj Object) ([]string, error)

	// GroupsOf returns the groups a user or group is a direct member of.
	GroupsOf(ctx context.Context, memberID string) ([]string, error)

	// GroupRolesOf returns the roles a group holds directly on obj.
	GroupRolesOf(ctx context.Context, groupID string, obj Object) ([]string, error)
}

// Requirements answers which roles may use a command group on an object.
type Requirements interface {
	RolesAllowedFor(ctx context.Context, obj Object, group CommandGroup) ([]string, error)
}
