package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

const (
	holderUser  = "user"
	holderGroup = "group"
	anyGroup    = "*"
)

// RoleStore keeps role definitions, assignments and command group
// requirements in PostgreSQL. It implements rbac.RoleSource,
// rbac.Assignments and rbac.Requirements over the embedded schema.
type RoleStore struct {
	pool *pgxpool.Pool
}

// NewRoleStore creates a store on pool.
func NewRoleStore(pool *pgxpool.Pool) *RoleStore {
	return &RoleStore{pool: pool}
}

// Load returns all role definitions.
func (s *RoleStore) Load(ctx context.Context) (map[string]rbac.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, scope, inherits FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rbac.Role, error) {
		var r rbac.Role
		err := row.Scan(&r.Name, &r.Scope, &r.Inherits)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	out := make(map[string]rbac.Role, len(roles))
	for _, r := range roles {
		out[r.Name] = r
	}
	return out, nil
}

// SaveRole creates or replaces a role definition.
func (s *RoleStore) SaveRole(ctx context.Context, r rbac.Role) error {
	inherits := r.Inherits
	if inherits == nil {
		inherits = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (name, scope, inherits) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET scope = EXCLUDED.scope, inherits = EXCLUDED.inherits`,
		r.Name, r.Scope, inherits)
	return err
}

func (s *RoleStore) RolesOf(ctx context.Context, userID string, obj rbac.Object) ([]string, error) {
	return s.heldRoles(ctx, holderUser, userID, obj)
}

func (s *RoleStore) GroupRolesOf(ctx context.Context, groupID string, obj rbac.Object) ([]string, error) {
	return s.heldRoles(ctx, holderGroup, groupID, obj)
}

func (s *RoleStore) GroupsOf(ctx context.Context, memberID string) ([]string, error) {
	return s.strings(ctx, `SELECT group_id FROM group_members WHERE member_id = $1 ORDER BY group_id`, memberID)
}

// Assign grants roles to a user on obj.
func (s *RoleStore) Assign(ctx context.Context, userID string, obj rbac.Object, roles ...string) error {
	return s.grant(ctx, holderUser, userID, obj, roles)
}

// AssignGroup grants roles to a group on obj.
func (s *RoleStore) AssignGroup(ctx context.Context, groupID string, obj rbac.Object, roles ...string) error {
	return s.grant(ctx, holderGroup, groupID, obj, roles)
}

// Revoke removes roles of a user on obj.
func (s *RoleStore) Revoke(ctx context.Context, userID string, obj rbac.Object, roles ...string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE holder_kind = $1 AND holder_id = $2 AND object_type = $3 AND object_id = $4 AND role = ANY($5)`,
		holderUser, userID, obj.TypeName(), obj.ObjectID(), roles)
	return err
}

// AddMember adds a user or group to a group.
func (s *RoleStore) AddMember(ctx context.Context, groupID, memberID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO group_members (group_id, member_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, groupID, memberID)
	return err
}

// RemoveMember removes a member from a group.
func (s *RoleStore) RemoveMember(ctx context.Context, groupID, memberID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND member_id = $2`, groupID, memberID)
	return err
}

// Allow lets roles use a command group ("*" for any) on objects whose type
// matches typePattern.
func (s *RoleStore) Allow(ctx context.Context, typePattern, group string, roles ...string) error {
	batch := &pgx.Batch{}
	for _, r := range roles {
		batch.Queue(`
			INSERT INTO role_requirements (type_pattern, command_group, role) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, typePattern, group, r)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// AllowOn lets roles use a command group on one object.
func (s *RoleStore) AllowOn(ctx context.Context, obj rbac.Object, group string, roles ...string) error {
	batch := &pgx.Batch{}
	for _, r := range roles {
		batch.Queue(`
			INSERT INTO object_requirements (object_type, object_id, command_group, role) VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING`, obj.TypeName(), obj.ObjectID(), group, r)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// RolesAllowedFor returns the roles of type rules whose pattern covers the
// object type plus the object-specific rules.
func (s *RoleStore) RolesAllowedFor(ctx context.Context, obj rbac.Object, group rbac.CommandGroup) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT type_pattern, role FROM role_requirements
		WHERE command_group = $1 OR command_group = $2`, group.Name, anyGroup)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	type rule struct{ pattern, role string }
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rule, error) {
		var r rule
		err := row.Scan(&r.pattern, &r.role)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(role string) {
		if _, ok := seen[role]; !ok && role != "" {
			seen[role] = struct{}{}
			out = append(out, role)
		}
	}
	for _, r := range rules {
		if rbac.CoversType(r.pattern, obj.TypeName()) {
			add(r.role)
		}
	}

	perObject, err := s.strings(ctx, `
		SELECT role FROM object_requirements
		WHERE object_type = $1 AND object_id = $2 AND (command_group = $3 OR command_group = $4)`,
		obj.TypeName(), obj.ObjectID(), group.Name, anyGroup)
	if err != nil {
		return nil, err
	}
	for _, r := range perObject {
		add(r)
	}
	return out, nil
}

func (s *RoleStore) heldRoles(ctx context.Context, kind, holderID string, obj rbac.Object) ([]string, error) {
	return s.strings(ctx, `
		SELECT role FROM role_assignments
		WHERE holder_kind = $1 AND holder_id = $2 AND object_type = $3 AND object_id = $4
		ORDER BY role`, kind, holderID, obj.TypeName(), obj.ObjectID())
}

func (s *RoleStore) grant(ctx context.Context, kind, holderID string, obj rbac.Object, roles []string) error {
	batch := &pgx.Batch{}
	for _, r := range roles {
		batch.Queue(`
			INSERT INTO role_assignments (holder_id, holder_kind, object_type, object_id, role)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			holderID, kind, obj.TypeName(), obj.ObjectID(), r)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *RoleStore) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
