package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

func TestGroupRegistry(t *testing.T) {
	t.Parallel()

	t.Run("predefined groups", func(t *testing.T) {
		t.Parallel()
		r := rbac.NewGroupRegistry()
		for _, name := range []string{"read", "write", "delete", "system"} {
			g, err := r.Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, g.Name)
		}
		sys, _ := r.Lookup("system")
		assert.True(t, sys.IsSystem())
	})

	t.Run("register custom group", func(t *testing.T) {
		t.Parallel()
		r := rbac.NewGroupRegistry()
		g, err := r.Register("export", rbac.TypeRead)
		require.NoError(t, err)
		assert.Equal(t, rbac.TypeRead, g.Type)

		again, err := r.Register("export", rbac.TypeRead)
		require.NoError(t, err)
		assert.Equal(t, g, again)

		_, err = r.Register("export", rbac.TypeWrite)
		assert.ErrorIs(t, err, rbac.ErrDuplicateGroup)
		assert.Len(t, r.All(), 5)
	})

	t.Run("invalid registrations", func(t *testing.T) {
		t.Parallel()
		r := rbac.NewGroupRegistry()
		_, err := r.Register("", rbac.TypeRead)
		assert.ErrorIs(t, err, rbac.ErrInvalidGroup)
		_, err = r.Register("root", rbac.TypeSystem)
		assert.ErrorIs(t, err, rbac.ErrInvalidGroup)
		_, err = r.Register("x", rbac.GroupType("bogus"))
		assert.ErrorIs(t, err, rbac.ErrInvalidGroup)
	})

	t.Run("frozen registry", func(t *testing.T) {
		t.Parallel()
		r := rbac.NewGroupRegistry()
		r.Freeze()
		_, err := r.Register("publish", rbac.TypeWrite)
		assert.ErrorIs(t, err, rbac.ErrRegistryFrozen)
		_, err = r.Lookup("publish")
		assert.ErrorIs(t, err, rbac.ErrUnknownGroup)
	})

	t.Run("zero group prints as wildcard", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "*", rbac.CommandGroup{}.String())
		assert.True(t, rbac.CommandGroup{}.IsZero())
	})
}
