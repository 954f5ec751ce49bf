package main

import (
	"github.com/dmitrymomot/boundsec/pkg/config"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// roleSeed is the YAML file loaded into the in-memory role stores.
type roleSeed struct {
	Roles []struct {
		Name     string   `yaml:"name"`
		Scope    string   `yaml:"scope"`
		Inherits []string `yaml:"inherits"`
	} `yaml:"roles"`
	Groups []struct {
		Name    string   `yaml:"name"`
		Members []string `yaml:"members"`
	} `yaml:"groups"`
	Assignments []struct {
		User  string   `yaml:"user"`
		Group string   `yaml:"group"`
		Type  string   `yaml:"type"`
		ID    string   `yaml:"id"`
		Roles []string `yaml:"roles"`
	} `yaml:"assignments"`
	Requirements []struct {
		Type    string   `yaml:"type"`
		ID      string   `yaml:"id"`
		Command string   `yaml:"command_group"`
		Roles   []string `yaml:"roles"`
	} `yaml:"requirements"`
}

type memoryRoles struct {
	source       rbac.RoleSource
	assignments  *rbac.MemoryAssignments
	requirements *rbac.MemoryRequirements
}

// loadMemoryRoles reads path into in-memory stores. An empty path yields
// empty stores, where only admins and system commands pass.
func loadMemoryRoles(path string) (*memoryRoles, error) {
	m := &memoryRoles{
		assignments:  rbac.NewMemoryAssignments(),
		requirements: rbac.NewMemoryRequirements(),
	}
	roles := make(map[string]rbac.Role)
	if path != "" {
		var seed roleSeed
		if err := config.LoadYAML(path, &seed); err != nil {
			return nil, err
		}
		for _, r := range seed.Roles {
			roles[r.Name] = rbac.Role{Name: r.Name, Scope: r.Scope, Inherits: r.Inherits}
		}
		for _, g := range seed.Groups {
			for _, member := range g.Members {
				m.assignments.AddMember(g.Name, member)
			}
		}
		for _, a := range seed.Assignments {
			obj := object(a.Type, a.ID)
			if a.Group != "" {
				m.assignments.AssignGroup(a.Group, obj, a.Roles...)
				continue
			}
			m.assignments.Assign(a.User, obj, a.Roles...)
		}
		for _, r := range seed.Requirements {
			if r.ID != "" {
				m.requirements.AllowOn(object(r.Type, r.ID), r.Command, r.Roles...)
				continue
			}
			m.requirements.Allow(r.Type, r.Command, r.Roles...)
		}
	}
	m.source = rbac.NewInMemRoleSource(roles)
	return m, nil
}

// globalObject terminates every security chain; grants on it apply
// everywhere.
var globalObject = &rbac.BasicObject{ID: "*", Type: "global"}

// object returns globalObject for entries naming no object.
func object(typeName, id string) rbac.Object {
	if typeName == "" && id == "" {
		return globalObject
	}
	return &rbac.BasicObject{ID: id, Type: typeName}
}
