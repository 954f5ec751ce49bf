package command

import "github.com/dmitrymomot/boundsec/pkg/rbac"

// ObjectRef is the storable form of an rbac.Object: its id, type and
// security parents. Suspension tokens keep a security object override
// this way so a resume is checked against the same object.
type ObjectRef struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Parent *ObjectRef `json:"parent,omitempty"`
}

// NewObjectRef captures obj and its security parent chain, stopping on a
// cycle. It returns nil for a nil object.
func NewObjectRef(obj rbac.Object) *ObjectRef {
	var head, tail *ObjectRef
	seen := make(map[string]struct{})
	for cur := obj; !rbac.IsNil(cur); cur = cur.SecurityParent() {
		key := cur.TypeName() + "#" + cur.ObjectID()
		if _, ok := seen[key]; ok {
			break
		}
		seen[key] = struct{}{}

		ref := &ObjectRef{ID: cur.ObjectID(), Type: cur.TypeName()}
		if head == nil {
			head = ref
		} else {
			tail.Parent = ref
		}
		tail = ref
	}
	return head
}

// Object rebuilds the referenced chain as rbac.BasicObject values.
func (r *ObjectRef) Object() rbac.Object {
	if r == nil {
		return nil
	}
	obj := &rbac.BasicObject{ID: r.ID, Type: r.Type}
	if r.Parent != nil {
		obj.Parent = r.Parent.Object()
	}
	return obj
}
