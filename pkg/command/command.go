package command

import (
	"context"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/secobject"
)

// Command is a registered, immutable command.
type Command struct {
	settings Settings
	handler  Handler
	rule     Rule
	provider secobject.Provider
	seq      int
}

// ID returns the unique command id.
func (c *Command) ID() string { return c.settings.ID }

// Settings returns a copy of the resolved settings.
func (c *Command) Settings() Settings { return c.settings.clone() }

// Group returns the command group checked before running the command.
func (c *Command) Group() rbac.CommandGroup { return c.settings.Group }

// Clique returns the clique the command is displayed in.
func (c *Command) Clique() string { return c.settings.Clique }

// Handler returns the command body.
func (c *Command) Handler() Handler { return c.handler }

// NeedsConfirm reports whether the user must confirm before the body runs.
func (c *Command) NeedsConfirm() bool { return c.settings.Confirm }

// ConfirmKey returns the confirmation message key.
func (c *Command) ConfirmKey() string { return c.settings.ConfirmKey }

// Target returns the target model selector.
func (c *Command) Target() Target { return c.settings.Target }

// IsExecutable evaluates the command's executability rules.
func (c *Command) IsExecutable(ctx context.Context, inv Invocation) ExecutableState {
	return c.rule.IsExecutable(ctx, inv)
}

// SecurityObject returns the object permissions are checked against. An
// rbac.Object passed as ArgSecurityObject wins over the provider.
func (c *Command) SecurityObject(inv Invocation) rbac.Object {
	if obj, ok := inv.Args[ArgSecurityObject].(rbac.Object); ok && !rbac.IsNil(obj) {
		return obj
	}
	return c.provider.SecurityObject(inv.Component, inv.Model, c.settings.Group)
}
