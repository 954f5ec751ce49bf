package rbac

// Object is anything a permission check can target.
type Object interface {
	ObjectID() string
	TypeName() string
	// SecurityParent returns the object whose roles are inherited, or nil.
	SecurityParent() Object
}

// ChildBearer is implemented by objects that expose their securable children.
type ChildBearer interface {
	SecurityChildren() []Object
}

// IsNil reports whether o is nil or holds a nil *BasicObject. Both mean
// "no object" to permission checks.
func IsNil(o Object) bool {
	if o == nil {
		return true
	}
	b, ok := o.(*BasicObject)
	return ok && b == nil
}

// objectKey identifies an object across type namespaces.
func objectKey(o Object) string {
	return o.TypeName() + "#" + o.ObjectID()
}

// securityChain returns obj followed by its security parents. The walk stops
// on a cycle; the default object, when given, terminates the chain.
func securityChain(obj, defaultObject Object) []Object {
	var chain []Object
	seen := make(map[string]struct{})
	for cur := obj; !IsNil(cur); cur = cur.SecurityParent() {
		key := objectKey(cur)
		if _, ok := seen[key]; ok {
			break
		}
		seen[key] = struct{}{}
		chain = append(chain, cur)
	}
	if !IsNil(defaultObject) {
		if _, ok := seen[objectKey(defaultObject)]; !ok {
			chain = append(chain, defaultObject)
		}
	}
	return chain
}

// BasicObject is a plain Object value, handy for configuration-defined
// objects such as the global default object.
type BasicObject struct {
	ID     string
	Type   string
	Parent Object
}

func (o *BasicObject) ObjectID() string {
	if o == nil {
		return ""
	}
	return o.ID
}

func (o *BasicObject) TypeName() string {
	if o == nil {
		return ""
	}
	return o.Type
}

func (o *BasicObject) SecurityParent() Object {
	if o == nil || IsNil(o.Parent) {
		return nil
	}
	return o.Parent
}
