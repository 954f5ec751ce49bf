package checker_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

type permsMock struct {
	mock.Mock
}

func (m *permsMock) Allow(ctx context.Context, u *rbac.User, obj rbac.Object, g rbac.CommandGroup) bool {
	return m.Called(u, obj, g).Bool(0)
}

func (m *permsMock) AllowWithRoles(ctx context.Context, u *rbac.User, obj rbac.Object, g rbac.CommandGroup, roles []string) bool {
	return m.Called(u, obj, g, roles).Bool(0)
}

// allowIDs allows users whose id is in the set.
type allowIDs map[string]bool

func (a allowIDs) Allow(_ context.Context, u *rbac.User, obj rbac.Object, _ rbac.CommandGroup) bool {
	if obj == nil {
		return true
	}
	return u != nil && a[u.ID]
}

func (a allowIDs) AllowWithRoles(ctx context.Context, u *rbac.User, obj rbac.Object, g rbac.CommandGroup, _ []string) bool {
	return a.Allow(ctx, u, obj, g)
}

// syncBuffer is a log sink safe for concurrent writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func names(cs []checker.Checker) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

func TestComponent(t *testing.T) {
	t.Parallel()

	obj := &rbac.BasicObject{ID: "1", Type: "document"}
	user := &rbac.User{ID: "u1"}

	t.Run("declares defaults per group", func(t *testing.T) {
		t.Parallel()
		c := checker.NewComponent("docs", nil,
			checker.DefaultFor("document", "read", "write"),
			checker.DefaultFor("folder"),
		)
		assert.True(t, c.IsDefaultFor("document", rbac.Read))
		assert.True(t, c.IsDefaultFor("document", rbac.Write))
		assert.False(t, c.IsDefaultFor("document", rbac.Delete))
		assert.True(t, c.IsDefaultFor("document", rbac.CommandGroup{}), "zero group asks for any group")
		assert.True(t, c.IsDefaultFor("folder", rbac.Delete))
		assert.False(t, c.IsDefaultFor("invoice", rbac.Read))
	})

	t.Run("children list sub-checkers before dialogs", func(t *testing.T) {
		t.Parallel()
		c := checker.NewComponent("docs", nil,
			checker.WithDialogs("edit-dialog"),
			checker.WithChildren("a", "b"),
		)
		assert.Equal(t, []string{"a", "b", "edit-dialog"}, c.Children())
	})

	t.Run("asks the role requirement api", func(t *testing.T) {
		t.Parallel()
		perms := &permsMock{}
		perms.On("Allow", user, obj, rbac.Write).Return(true).Once()
		c := checker.NewComponent("docs", perms)

		assert.True(t, c.Allow(context.Background(), user, obj, rbac.Write))
		perms.AssertExpectations(t)
	})

	t.Run("own roles override the requirement api", func(t *testing.T) {
		t.Parallel()
		perms := &permsMock{}
		perms.On("AllowWithRoles", user, obj, rbac.Delete, []string{"owner"}).Return(false).Once()
		c := checker.NewComponent("docs", perms, checker.WithRoles("delete", "owner"))

		assert.False(t, c.Allow(context.Background(), user, obj, rbac.Delete))
		perms.AssertExpectations(t)
		perms.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTree(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate names and missing root", func(t *testing.T) {
		t.Parallel()
		_, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil),
			checker.NewComponent("root", nil),
		})
		assert.ErrorIs(t, err, checker.ErrDuplicateChecker)

		_, err = checker.NewTree("main", "missing", []checker.Checker{
			checker.NewComponent("root", nil),
		})
		assert.ErrorIs(t, err, checker.ErrRootNotFound)
	})

	t.Run("walks depth first once per checker", func(t *testing.T) {
		t.Parallel()
		tree, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil, checker.WithChildren("a", "b")),
			checker.NewComponent("a", nil, checker.WithChildren("a1", "b")),
			checker.NewComponent("a1", nil, checker.WithChildren("root")),
			checker.NewComponent("b", nil),
		})
		require.NoError(t, err)

		var visited []string
		tree.Walk(context.Background(), func(c checker.Checker) bool {
			visited = append(visited, c.Name())
			return true
		})
		assert.Equal(t, []string{"root", "a", "a1", "b"}, visited)
	})

	t.Run("dangling references are logged and skipped", func(t *testing.T) {
		t.Parallel()
		log, buf := newLogger()
		tree, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil, checker.WithChildren("gone", "docs")),
			checker.NewComponent("docs", nil, checker.DefaultFor("document")),
		}, checker.WithTreeLogger(log))
		require.NoError(t, err)

		assert.Equal(t, []string{"docs"}, tree.DefaultsFor(context.Background(), "document", rbac.Read))
		assert.Contains(t, buf.String(), "checker reference does not resolve")
		assert.Contains(t, buf.String(), "gone")
	})

	t.Run("follows proxies", func(t *testing.T) {
		t.Parallel()
		target := checker.NewComponent("docs", allowIDs{"u1": true})
		tree, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil, checker.WithChildren("p1")),
			checker.NewProxy("p1", "p2"),
			checker.NewProxy("p2", "docs"),
			target,
		})
		require.NoError(t, err)

		c, err := tree.Follow("p1")
		require.NoError(t, err)
		assert.Equal(t, "docs", c.Name())

		proxy, ok := tree.Lookup("p1")
		require.True(t, ok)
		obj := &rbac.BasicObject{ID: "1", Type: "document"}
		assert.True(t, proxy.Allow(context.Background(), &rbac.User{ID: "u1"}, obj, rbac.Read))
		assert.False(t, proxy.Allow(context.Background(), &rbac.User{ID: "u2"}, obj, rbac.Read))
	})

	t.Run("proxy cycle denies and is reported", func(t *testing.T) {
		t.Parallel()
		tree, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil, checker.WithChildren("p1")),
			checker.NewProxy("p1", "p2"),
			checker.NewProxy("p2", "p1"),
		})
		require.NoError(t, err)

		_, err = tree.Follow("p1")
		assert.ErrorIs(t, err, checker.ErrProxyCycle)

		proxy, _ := tree.Lookup("p1")
		assert.False(t, proxy.Allow(context.Background(), &rbac.User{ID: "u1"},
			&rbac.BasicObject{ID: "1", Type: "document"}, rbac.Read))

		errs := tree.Validate()
		require.NotEmpty(t, errs)
		assert.ErrorIs(t, errs[0], checker.ErrProxyCycle)
	})

	t.Run("validate reports ambiguity and dangling names", func(t *testing.T) {
		t.Parallel()
		tree, err := checker.NewTree("main", "root", []checker.Checker{
			checker.NewComponent("root", nil, checker.WithChildren("a", "b", "missing")),
			checker.NewComponent("a", nil, checker.DefaultFor("document", "read")),
			checker.NewComponent("b", nil, checker.DefaultFor("document", "read")),
		})
		require.NoError(t, err)

		errs := tree.Validate()
		require.Len(t, errs, 2)
		assert.ErrorIs(t, errs[0], checker.ErrDanglingChecker)
		assert.ErrorIs(t, errs[1], checker.ErrAmbiguousDefault)
	})
}
