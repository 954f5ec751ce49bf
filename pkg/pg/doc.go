// Package pg connects to PostgreSQL, applies the role schema with goose and
// stores role data.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewRoleStore(pool)
//	catalog, err := rbac.NewRoleCatalog(ctx, store)
//	resolver := rbac.NewResolver(store, store, rbac.WithRoleCatalog(catalog))
//
// RoleStore implements rbac.RoleSource, rbac.Assignments and
// rbac.Requirements. Requirement type patterns are matched in Go with the
// same scope rules as the in-memory implementation.
package pg
