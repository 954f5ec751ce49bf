package secobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/secobject"
)

type modelChecker struct {
	*checker.Component
	model any
}

func (m modelChecker) Model() any { return m.model }

func TestProviders(t *testing.T) {
	t.Parallel()

	folder := &rbac.BasicObject{ID: "f", Type: "folder"}
	doc := &rbac.BasicObject{ID: "d", Type: "document", Parent: folder}
	plain := checker.NewComponent("plain", nil)
	withModel := modelChecker{Component: checker.NewComponent("view", nil), model: folder}
	fixed := &rbac.BasicObject{ID: "root", Type: "system"}

	tests := []struct {
		name     string
		provider secobject.Provider
		checker  checker.Checker
		model    any
		want     rbac.Object
	}{
		{"null never restricts", secobject.Null, plain, doc, nil},
		{"model of securable", secobject.Model, plain, doc, doc},
		{"model of plain value", secobject.Model, plain, "text", nil},
		{"parent", secobject.Parent, plain, doc, folder},
		{"parent of root", secobject.Parent, plain, folder, nil},
		{"parent of plain value", secobject.Parent, plain, 42, nil},
		{"default prefers model", secobject.Default, withModel, doc, doc},
		{"default falls back to checker model", secobject.Default, withModel, "text", folder},
		{"default without checker model", secobject.Default, plain, nil, nil},
		{"fixed", secobject.Fixed(fixed), plain, doc, fixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.provider.SecurityObject(tt.checker, tt.model, rbac.Write)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := secobject.NewRegistry()
	assert.Equal(t, []string{"default", "model", "null", "parent"}, r.Names())

	p, err := r.Lookup("")
	require.NoError(t, err)
	doc := &rbac.BasicObject{ID: "d", Type: "document"}
	assert.Equal(t, doc, p.SecurityObject(nil, doc, rbac.Read))

	_, err = r.Lookup("owner")
	assert.ErrorIs(t, err, secobject.ErrUnknownProvider)

	owner := &rbac.BasicObject{ID: "o", Type: "person"}
	r.Register("owner", func() secobject.Provider { return secobject.Fixed(owner) })
	p, err = r.Lookup("owner")
	require.NoError(t, err)
	assert.Equal(t, owner, p.SecurityObject(nil, doc, rbac.Read))
}
