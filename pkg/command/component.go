package command

import (
	"maps"

	"github.com/dmitrymomot/boundsec/pkg/checker"
)

// Reserved argument keys.
const (
	// ArgConfirmed marks an invocation the user already confirmed.
	ArgConfirmed = "_confirmed"
	// ArgSecurityObject carries an rbac.Object that overrides the
	// command's security object provider.
	ArgSecurityObject = "_security_object"
)

// Component is the UI component a command is invoked on. Its checker name
// is the component name.
type Component interface {
	checker.Checker
	Model() any
	Selection() any
	// DialogParent returns the component that opened the dialog this
	// component belongs to, or nil.
	DialogParent() Component
}

// Args are the arguments of an invocation.
type Args map[string]any

// With returns a copy of a with extra merged in.
func (a Args) With(extra Args) Args {
	out := make(Args, len(a)+len(extra))
	maps.Copy(out, a)
	maps.Copy(out, extra)
	return out
}

// Public returns a copy of a without the reserved keys. Arguments from
// untrusted callers go through it so they cannot confirm an invocation or
// replace its security object.
func (a Args) Public() Args {
	out := a.With(nil)
	delete(out, ArgConfirmed)
	delete(out, ArgSecurityObject)
	return out
}

// Confirmed reports whether the confirmation marker is set.
func (a Args) Confirmed() bool {
	v, _ := a[ArgConfirmed].(bool)
	return v
}

// String returns the string argument stored under key.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Invocation is one call of a command on a component.
type Invocation struct {
	Component Component
	Model     any
	Args      Args
}
