package rbac

import "errors"

// Domain errors for permission resolution.
var (
	// ErrInvalidRole is returned when a role does not exist.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrPermissionDenied is returned by Check when the user may not use the command group on the object.
	ErrPermissionDenied = errors.New("rbac.permission_denied")

	// ErrUserNotInContext is returned when no user is found in the context.
	ErrUserNotInContext = errors.New("rbac.user_not_in_context")

	// ErrCircularInheritance is returned when roles have circular inheritance.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")

	// ErrRegistryFrozen is returned when a command group is registered after boot.
	ErrRegistryFrozen = errors.New("rbac.group_registry_frozen")

	// ErrDuplicateGroup is returned when a command group name is reused with a different type.
	ErrDuplicateGroup = errors.New("rbac.duplicate_command_group")

	// ErrInvalidGroup is returned for empty group names, unknown group types or a second system group.
	ErrInvalidGroup = errors.New("rbac.invalid_command_group")

	// ErrUnknownGroup is returned when a command group name is not registered.
	ErrUnknownGroup = errors.New("rbac.unknown_command_group")
)
