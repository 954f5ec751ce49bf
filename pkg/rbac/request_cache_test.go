package rbac_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

type countingRequirements struct {
	rbac.Requirements
	calls atomic.Int32
}

func (c *countingRequirements) RolesAllowedFor(ctx context.Context, obj rbac.Object, g rbac.CommandGroup) ([]string, error) {
	c.calls.Add(1)
	return c.Requirements.RolesAllowedFor(ctx, obj, g)
}

func TestRequestCache(t *testing.T) {
	t.Parallel()

	user := &rbac.User{ID: "alice"}
	obj := &rbac.BasicObject{ID: "o", Type: "docs.Document"}

	setup := func() (*rbac.Resolver, *countingRequirements) {
		assignments := rbac.NewMemoryAssignments()
		reqs := rbac.NewMemoryRequirements()
		reqs.Allow("*", "read", "reader")
		assignments.Assign(user.ID, obj, "reader")
		counting := &countingRequirements{Requirements: reqs}
		return rbac.NewResolver(assignments, counting), counting
	}

	t.Run("decisions cached within the request", func(t *testing.T) {
		t.Parallel()
		resolver, counting := setup()

		err := rbac.RunWithRequestCache(context.Background(), func(ctx context.Context) error {
			assert.True(t, rbac.HasRequestCache(ctx))
			for range 5 {
				assert.True(t, resolver.Allow(ctx, user, obj, rbac.Read))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int32(1), counting.calls.Load())
	})

	t.Run("no cache without install", func(t *testing.T) {
		t.Parallel()
		resolver, counting := setup()
		for range 3 {
			resolver.Allow(context.Background(), user, obj, rbac.Read)
		}
		assert.Equal(t, int32(3), counting.calls.Load())
	})

	t.Run("released cache answers nothing", func(t *testing.T) {
		t.Parallel()
		resolver, counting := setup()
		ctx, release := rbac.WithRequestCache(context.Background())
		resolver.Allow(ctx, user, obj, rbac.Read)
		release()
		assert.False(t, rbac.HasRequestCache(ctx))
		resolver.Allow(ctx, user, obj, rbac.Read)
		assert.Equal(t, int32(2), counting.calls.Load())
	})

	t.Run("nested install reuses the outer cache", func(t *testing.T) {
		t.Parallel()
		ctx, release := rbac.WithRequestCache(context.Background())
		defer release()
		inner, innerRelease := rbac.WithRequestCache(ctx)
		innerRelease()
		assert.True(t, rbac.HasRequestCache(inner))
	})

	t.Run("released on error and panic", func(t *testing.T) {
		t.Parallel()
		var captured context.Context
		boom := errors.New("boom")
		err := rbac.RunWithRequestCache(context.Background(), func(ctx context.Context) error {
			captured = ctx
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.False(t, rbac.HasRequestCache(captured))

		assert.Panics(t, func() {
			_ = rbac.RunWithRequestCache(context.Background(), func(ctx context.Context) error {
				captured = ctx
				panic("boom")
			})
		})
		assert.False(t, rbac.HasRequestCache(captured))
	})
}
