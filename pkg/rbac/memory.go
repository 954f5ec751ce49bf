package rbac

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// inMemRoleSource is a RoleSource over a fixed set of roles.
type inMemRoleSource struct {
	roles map[string]Role
}

// NewInMemRoleSource creates a role source from a deep copy of roles.
// Map keys win over Role.Name.
func NewInMemRoleSource(roles map[string]Role) RoleSource {
	cp := make(map[string]Role, len(roles))
	for name, r := range roles {
		cp[name] = Role{
			Name:     name,
			Scope:    r.Scope,
			Inherits: slices.Clone(r.Inherits),
		}
	}
	return &inMemRoleSource{roles: cp}
}

// Load returns the map of roles. The authorizer treats it as read-only.
func (s *inMemRoleSource) Load(context.Context) (map[string]Role, error) {
	return s.roles, nil
}

type grantKey struct {
	subject string
	object  string
}

// MemoryAssignments is a thread-safe in-memory Assignments implementation.
// Grants are keyed by object type and id.
type MemoryAssignments struct {
	mu          sync.RWMutex
	userRoles   map[grantKey]map[string]struct{}
	groupRoles  map[grantKey]map[string]struct{}
	memberships map[string]map[string]struct{}
}

// NewMemoryAssignments returns an empty assignment store.
func NewMemoryAssignments() *MemoryAssignments {
	return &MemoryAssignments{
		userRoles:   make(map[grantKey]map[string]struct{}),
		groupRoles:  make(map[grantKey]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Assign grants roles to a user on obj.
func (m *MemoryAssignments) Assign(userID string, obj Object, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant(m.userRoles, grantKey{userID, objectKey(obj)}, roles)
}

// Revoke removes roles of a user on obj.
func (m *MemoryAssignments) Revoke(userID string, obj Object, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revoke(m.userRoles, grantKey{userID, objectKey(obj)}, roles)
}

// AssignGroup grants roles to a group on obj.
func (m *MemoryAssignments) AssignGroup(groupID string, obj Object, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant(m.groupRoles, grantKey{groupID, objectKey(obj)}, roles)
}

// RevokeGroup removes roles of a group on obj.
func (m *MemoryAssignments) RevokeGroup(groupID string, obj Object, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revoke(m.groupRoles, grantKey{groupID, objectKey(obj)}, roles)
}

// AddMember makes a user or group a member of groupID.
func (m *MemoryAssignments) AddMember(groupID, memberID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.memberships[memberID]
	if !ok {
		set = make(map[string]struct{})
		m.memberships[memberID] = set
	}
	set[groupID] = struct{}{}
}

// RemoveMember drops memberID from groupID.
func (m *MemoryAssignments) RemoveMember(groupID, memberID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.memberships[memberID], groupID)
}

func (m *MemoryAssignments) RolesOf(_ context.Context, userID string, obj Object) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.userRoles[grantKey{userID, objectKey(obj)}]), nil
}

func (m *MemoryAssignments) GroupsOf(_ context.Context, memberID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.memberships[memberID]), nil
}

func (m *MemoryAssignments) GroupRolesOf(_ context.Context, groupID string, obj Object) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.groupRoles[grantKey{groupID, objectKey(obj)}]), nil
}

type requirement struct {
	typePattern string
	group       string
	roles       []string
}

// MemoryRequirements is a thread-safe in-memory Requirements implementation.
// Rules match object types by scope pattern ("*", "sales", "sales.*") and
// groups by name or "*". Object-specific rules add to the type rules.
type MemoryRequirements struct {
	mu        sync.RWMutex
	rules     []requirement
	perObject map[grantKey][]string
}

// NewMemoryRequirements returns an empty requirement store.
func NewMemoryRequirements() *MemoryRequirements {
	return &MemoryRequirements{perObject: make(map[grantKey][]string)}
}

// Allow lets roles use the named group on objects whose type matches typePattern.
func (m *MemoryRequirements) Allow(typePattern, group string, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, requirement{typePattern: typePattern, group: group, roles: slices.Clone(roles)})
}

// AllowOn lets roles use the named group on one object.
func (m *MemoryRequirements) AllowOn(obj Object, group string, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := grantKey{group, objectKey(obj)}
	m.perObject[key] = append(m.perObject[key], roles...)
}

func (m *MemoryRequirements) RolesAllowedFor(_ context.Context, obj Object, group CommandGroup) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, r := range m.rules {
		if (r.group == scopeWildcard || r.group == group.Name) && scopeCovers(r.typePattern, obj.TypeName()) {
			out = append(out, r.roles...)
		}
	}
	out = append(out, m.perObject[grantKey{group.Name, objectKey(obj)}]...)
	out = append(out, m.perObject[grantKey{scopeWildcard, objectKey(obj)}]...)
	return normalizeRoles(out), nil
}

func grant(m map[grantKey]map[string]struct{}, key grantKey, roles []string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{}, len(roles))
		m[key] = set
	}
	for _, r := range roles {
		set[r] = struct{}{}
	}
}

func revoke(m map[grantKey]map[string]struct{}, key grantKey, roles []string) {
	set := m[key]
	for _, r := range roles {
		delete(set, r)
	}
	if len(set) == 0 {
		delete(m, key)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}
