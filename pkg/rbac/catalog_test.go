package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

func TestNewRoleCatalog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		roles   map[string]rbac.Role
		wantErr error
	}{
		{
			name: "valid hierarchy",
			roles: map[string]rbac.Role{
				"viewer": {},
				"editor": {Inherits: []string{"viewer"}},
				"admin":  {Inherits: []string{"editor"}},
			},
		},
		{
			name: "direct cycle",
			roles: map[string]rbac.Role{
				"a": {Inherits: []string{"b"}},
				"b": {Inherits: []string{"a"}},
			},
			wantErr: rbac.ErrCircularInheritance,
		},
		{
			name: "self reference",
			roles: map[string]rbac.Role{
				"a": {Inherits: []string{"a"}},
			},
			wantErr: rbac.ErrCircularInheritance,
		},
		{
			name:  "empty",
			roles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := rbac.NewRoleCatalog(ctx, rbac.NewInMemRoleSource(tt.roles))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRoleCatalog_DepthLimit(t *testing.T) {
	t.Parallel()

	roles := make(map[string]rbac.Role)
	names := []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9", "r10", "r11", "r12"}
	for i, n := range names {
		if i == 0 {
			roles[n] = rbac.Role{}
			continue
		}
		roles[n] = rbac.Role{Inherits: []string{names[i-1]}}
	}

	_, err := rbac.NewRoleCatalog(context.Background(), rbac.NewInMemRoleSource(roles))
	assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
}

func TestRoleCatalog_Expand(t *testing.T) {
	t.Parallel()

	catalog, err := rbac.NewRoleCatalog(context.Background(), rbac.NewInMemRoleSource(map[string]rbac.Role{
		"viewer":   {},
		"editor":   {Inherits: []string{"viewer"}},
		"owner":    {Inherits: []string{"editor"}},
		"hr.clerk": {Scope: "hr", Inherits: []string{"viewer"}},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"editor", "owner", "viewer"}, catalog.Expand([]string{"owner"}, "docs.Document"))
	assert.Equal(t, []string{"hr.clerk", "viewer"}, catalog.Expand([]string{"hr.clerk"}, "hr.Employee"))
	assert.Empty(t, catalog.Expand([]string{"hr.clerk"}, "docs.Document"))
	assert.Equal(t, []string{"external"}, catalog.Expand([]string{"external"}, "docs.Document"))

	assert.Equal(t, []string{"viewer"}, catalog.Roles()[:1])

	_, err = catalog.Role("missing")
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)
}
