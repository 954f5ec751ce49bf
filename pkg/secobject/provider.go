package secobject

import (
	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// Provider maps a command's target model to the object permissions are
// checked against. Implementations must be pure.
type Provider interface {
	SecurityObject(c checker.Checker, model any, group rbac.CommandGroup) rbac.Object
}

// Func adapts a function to Provider.
type Func func(c checker.Checker, model any, group rbac.CommandGroup) rbac.Object

func (f Func) SecurityObject(c checker.Checker, model any, group rbac.CommandGroup) rbac.Object {
	return f(c, model, group)
}

// Modeler is implemented by checkers that display a model of their own.
type Modeler interface {
	Model() any
}

var (
	// Null never restricts: it always returns no object.
	Null Provider = Func(func(checker.Checker, any, rbac.CommandGroup) rbac.Object {
		return nil
	})

	// Model checks the model itself, when it is securable.
	Model Provider = Func(func(_ checker.Checker, model any, _ rbac.CommandGroup) rbac.Object {
		return asObject(model)
	})

	// Parent checks the security parent of the model.
	Parent Provider = Func(func(_ checker.Checker, model any, _ rbac.CommandGroup) rbac.Object {
		if obj := asObject(model); obj != nil {
			return obj.SecurityParent()
		}
		return nil
	})

	// Default checks the model when it is securable and otherwise the model
	// displayed by the checker itself.
	Default Provider = Func(func(c checker.Checker, model any, _ rbac.CommandGroup) rbac.Object {
		if obj := asObject(model); obj != nil {
			return obj
		}
		if m, ok := c.(Modeler); ok {
			return asObject(m.Model())
		}
		return nil
	})
)

// Fixed always checks obj.
func Fixed(obj rbac.Object) Provider {
	return Func(func(checker.Checker, any, rbac.CommandGroup) rbac.Object {
		return obj
	})
}

func asObject(model any) rbac.Object {
	obj, ok := model.(rbac.Object)
	if !ok || rbac.IsNil(obj) {
		return nil
	}
	return obj
}
