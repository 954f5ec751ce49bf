// Package rbac decides whether a user may use a command group on a securable object.
//
// The model consists of users (optionally admin or restricted), roles (optionally
// scoped to a dotted type namespace and inheriting other roles), command groups
// classified as read, write, delete or system, and securable objects that form a
// security parent chain.
//
// Resolution order for Resolver.Allow:
//
//   - a nil object is not restricted and allows
//   - a nil user denies
//   - the system group allows
//   - admin users allow
//   - the RestrictionPolicy may deny whole group classes (restricted users: read only)
//   - the roles required for the group on the object are looked up; none denies
//   - the user's effective roles (local, security parent chain, group memberships,
//     role inheritance) must intersect the required roles
//
// Basic usage:
//
//	assignments := rbac.NewMemoryAssignments()
//	requirements := rbac.NewMemoryRequirements()
//	requirements.Allow("docs.*", "write", "editor")
//	assignments.Assign("alice", folder, "editor")
//
//	resolver := rbac.NewResolver(assignments, requirements)
//	resolver.Allow(ctx, alice, document, rbac.Write) // true if document's parent chain reaches folder
//
// Many checks in one request can share lookups through a request cache:
//
//	err := rbac.RunWithRequestCache(ctx, func(ctx context.Context) error {
//	    visible := resolver.Filter(ctx, user, rows, rbac.Read)
//	    ...
//	})
package rbac
