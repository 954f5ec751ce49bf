package catalog

import "github.com/dmitrymomot/boundsec/pkg/command"

// Spec is the YAML document describing command groups, the type graph,
// cliques, checkers, checker trees and commands.
type Spec struct {
	Defaults   command.Defaults `yaml:"defaults"`
	Groups     []GroupSpec      `yaml:"groups" validate:"dive"`
	Types      []TypeSpec       `yaml:"types" validate:"dive"`
	Cliques    []CliqueSpec     `yaml:"cliques" validate:"dive"`
	Components []ComponentSpec  `yaml:"components" validate:"dive"`
	Proxies    []ProxySpec      `yaml:"proxies" validate:"dive"`
	Trees      []TreeSpec       `yaml:"trees" validate:"dive"`
	Static     []StaticSpec     `yaml:"static" validate:"dive"`
	Commands   []command.Config `yaml:"commands" validate:"-"`
}

// GroupSpec declares a custom command group.
type GroupSpec struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=read write delete system"`
}

// TypeSpec declares a type with its direct supertypes. CheckerType maps the
// type to another name for checker lookups.
type TypeSpec struct {
	Name        string   `yaml:"name" validate:"required"`
	Supertypes  []string `yaml:"supertypes" validate:"dive,required"`
	CheckerType string   `yaml:"checker_type"`
}

// CliqueSpec is a standalone clique, or a clique group when Cliques is set.
// Entries take catalog indices in document order.
type CliqueSpec struct {
	Name          string       `yaml:"name" validate:"required"`
	Display       string       `yaml:"display" validate:"omitempty,oneof=commands toolbar menu context-menu hidden"`
	Image         string       `yaml:"image"`
	DisabledImage string       `yaml:"disabled_image"`
	CSSClasses    []string     `yaml:"css_classes"`
	Cliques       []CliqueSpec `yaml:"cliques" validate:"dive"`
}

// DefaultSpec declares a checker the default for a type. No groups means
// every group.
type DefaultSpec struct {
	Type   string   `yaml:"type" validate:"required"`
	Groups []string `yaml:"groups"`
}

// ComponentSpec declares a UI component and its checker.
type ComponentSpec struct {
	Name     string              `yaml:"name" validate:"required"`
	Defaults []DefaultSpec       `yaml:"defaults" validate:"dive"`
	Children []string            `yaml:"children" validate:"dive,required"`
	Dialogs  []string            `yaml:"dialogs" validate:"dive,required"`
	Roles    map[string][]string `yaml:"roles"`
}

// ProxySpec declares a checker that delegates to another one.
type ProxySpec struct {
	Name     string        `yaml:"name" validate:"required"`
	Target   string        `yaml:"target" validate:"required"`
	Defaults []DefaultSpec `yaml:"defaults" validate:"dive"`
}

// TreeSpec declares a checker tree rooted at a component.
type TreeSpec struct {
	ID   string `yaml:"id" validate:"required"`
	Root string `yaml:"root" validate:"required"`
}

// StaticSpec registers a checker for a type under a root without a tree.
type StaticSpec struct {
	Root    string `yaml:"root" validate:"required"`
	Type    string `yaml:"type" validate:"required"`
	Checker string `yaml:"checker" validate:"required"`
}
