package rbac

// MaxInheritanceDepth is the maximum allowed depth of role inheritance
// to prevent excessive nesting and potential performance issues.
const MaxInheritanceDepth = 10

// User is the acting identity of a permission check.
type User struct {
	ID string

	// Admin users pass every check.
	Admin bool

	// Restricted users are limited by the resolver's RestrictionPolicy.
	Restricted bool
}

// Role is a named grant. Roles with an empty Scope are global; scoped roles
// only count on objects whose type name lies inside the scope
// (scope "sales" covers "sales.Order" and "sales.invoice.Line").
type Role struct {
	Name  string
	Scope string

	// Inherits lists role names this role implies.
	Inherits []string
}

// Global reports whether the role is not bound to a scope.
func (r Role) Global() bool {
	return r.Scope == ""
}

// Covers reports whether the role is effective on objects of the given type.
func (r Role) Covers(typeName string) bool {
	return r.Global() || scopeCovers(r.Scope, typeName)
}
