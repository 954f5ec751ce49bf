package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/pg"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// newStore connects to PG_CONN_URL and applies the embedded schema.
// Tests share one database, so each one uses its own ids.
func newStore(t *testing.T) *pg.RoleStore {
	t.Helper()
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL is not set")
	}
	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, RetryAttempts: 1, RetryInterval: time.Second}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Nop()))
	require.NoError(t, pg.Healthcheck(pool)(ctx))
	return pg.NewRoleStore(pool)
}

func TestRoleStore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000")
	doc := &rbac.BasicObject{ID: "doc-" + suffix, Type: "sales.order"}
	user := "user-" + suffix
	group := "team-" + suffix

	require.NoError(t, store.SaveRole(ctx, rbac.Role{Name: "viewer-" + suffix}))
	require.NoError(t, store.SaveRole(ctx, rbac.Role{Name: "editor-" + suffix, Scope: "sales", Inherits: []string{"viewer-" + suffix}}))
	roles, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer-" + suffix}, roles["editor-"+suffix].Inherits)
	assert.Equal(t, "sales", roles["editor-"+suffix].Scope)

	require.NoError(t, store.Assign(ctx, user, doc, "editor-"+suffix))
	held, err := store.RolesOf(ctx, user, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor-" + suffix}, held)

	require.NoError(t, store.AddMember(ctx, group, user))
	require.NoError(t, store.AssignGroup(ctx, group, doc, "viewer-"+suffix))
	groups, err := store.GroupsOf(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, groups, group)
	groupRoles, err := store.GroupRolesOf(ctx, group, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer-" + suffix}, groupRoles)

	require.NoError(t, store.Allow(ctx, "sales.*", "write", "editor-"+suffix))
	require.NoError(t, store.Allow(ctx, "crm", "write", "other-"+suffix))
	require.NoError(t, store.AllowOn(ctx, doc, "*", "auditor-"+suffix))
	allowed, err := store.RolesAllowedFor(ctx, doc, rbac.Write)
	require.NoError(t, err)
	assert.Contains(t, allowed, "editor-"+suffix)
	assert.Contains(t, allowed, "auditor-"+suffix)
	assert.NotContains(t, allowed, "other-"+suffix)

	resolver := rbac.NewResolver(store, store)
	u := &rbac.User{ID: user}
	assert.True(t, resolver.Allow(ctx, u, doc, rbac.Write))

	require.NoError(t, store.Revoke(ctx, user, doc, "editor-"+suffix))
	held, err = store.RolesOf(ctx, user, doc)
	require.NoError(t, err)
	assert.Empty(t, held)
	assert.False(t, resolver.Allow(ctx, u, doc, rbac.Write))

	require.NoError(t, store.RemoveMember(ctx, group, user))
}

func TestConnectErrors(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestMigrateMissingDir(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, pg.Config{MigrationsPath: t.TempDir() + "/missing"}, logger.Nop())
	assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
}
