package dialog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/dialog"
	"github.com/dmitrymomot/boundsec/pkg/execution"
)

type component struct {
	*checker.Component
	*dialog.Set
	model  any
	parent command.Component
}

func (c *component) Model() any                      { return c.model }
func (c *component) Selection() any                  { return nil }
func (c *component) DialogParent() command.Component { return c.parent }

// plain is a component without dialogs.
type plain struct {
	*checker.Component
}

func (p *plain) Model() any                      { return nil }
func (p *plain) Selection() any                  { return nil }
func (p *plain) DialogParent() command.Component { return nil }

func newRegistry(t *testing.T) *command.Registry {
	t.Helper()
	factories := command.NewFactories()
	dialog.Register(factories)
	rules := command.NewRuleRegistry()
	dialog.RegisterRules(rules)
	return command.NewRegistry(nil, command.WithFactories(factories), command.WithRules(rules))
}

func TestOpenAndClose(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	open := reg.MustRegister(command.Config{
		ID: "edit", Kind: dialog.KindOpen, Group: "read", SecurityObject: "null",
		Params: map[string]string{dialog.ParamDialog: "editDialog"},
	})
	closeCmd := reg.MustRegister(command.Config{
		ID: "cancel", Kind: dialog.KindClose, Group: "read", SecurityObject: "null",
		Confirm: true, Executability: []string{dialog.RuleInDialog},
	})
	assert.False(t, closeCmd.NeedsConfirm(), "closing never asks for confirmation")

	owner := &component{Component: checker.NewComponent("list", nil), Set: dialog.NewSet("editDialog"), model: "row-1"}
	editor := &component{Component: checker.NewComponent("editDialog", nil), Set: dialog.NewSet(), parent: owner}
	engine := execution.NewEngine(reg, execution.ComponentMap{"list": owner, "editDialog": editor})
	ctx := context.Background()

	res := engine.Execute(ctx, open, command.Invocation{Component: owner, Model: owner.model, Args: command.Args{"mode": "edit"}})
	require.True(t, res.IsSuccess(), res.Errors())
	st, ok := owner.Open("editDialog")
	require.True(t, ok)
	assert.Equal(t, "row-1", st.Model)
	assert.Equal(t, "edit", st.Args.String("mode"))

	res = engine.Execute(ctx, closeCmd, command.Invocation{Component: editor})
	require.True(t, res.IsSuccess(), res.Errors())
	assert.True(t, res.CloseDialog())
	assert.Empty(t, owner.OpenNames())

	res = engine.Execute(ctx, closeCmd, command.Invocation{Component: owner})
	assert.ErrorIs(t, res.Err(), execution.ErrNotExecutable)
	assert.Equal(t, []string{dialog.ReasonNotInDialog}, res.Errors())
}

func TestOpenExecutability(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	open := reg.MustRegister(command.Config{
		ID: "edit", Kind: dialog.KindOpen, Group: "read",
		Params: map[string]string{dialog.ParamDialog: "editDialog"},
	})

	tests := []struct {
		name   string
		comp   command.Component
		hidden bool
	}{
		{"owner", &component{Component: checker.NewComponent("a", nil), Set: dialog.NewSet("editDialog")}, false},
		{"other dialogs only", &component{Component: checker.NewComponent("b", nil), Set: dialog.NewSet("viewDialog")}, true},
		{"no host", &plain{Component: checker.NewComponent("c", nil)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := open.IsExecutable(context.Background(), command.Invocation{Component: tt.comp})
			assert.Equal(t, tt.hidden, st.Hidden)
			assert.Equal(t, !tt.hidden, st.Executable)
		})
	}
}

func TestCloseNamedDialog(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	closeCmd := reg.MustRegister(command.Config{
		ID: "closeEditor", Kind: dialog.KindClose, Group: "read", SecurityObject: "null",
		Params: map[string]string{dialog.ParamDialog: "editDialog"},
	})
	owner := &component{Component: checker.NewComponent("list", nil), Set: dialog.NewSet("editDialog")}
	ctx := context.Background()
	require.NoError(t, owner.OpenDialog(ctx, "editDialog", nil, nil))

	res := execution.NewEngine(reg, nil).Execute(ctx, closeCmd, command.Invocation{Component: owner})
	require.True(t, res.IsSuccess())
	assert.True(t, res.CloseDialog())
	assert.Empty(t, owner.OpenNames())
}

func TestOpenFactoryRequiresName(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	_, err := reg.Register(command.Config{ID: "edit", Kind: dialog.KindOpen, Group: "read"})
	require.Error(t, err)
	assert.True(t, command.IsConfigurationError(err))
	assert.ErrorIs(t, err, dialog.ErrMissingName)
}

func TestSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := dialog.NewSet("b", "a")
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.HasDialog("a"))
	assert.False(t, s.HasDialog("c"))

	assert.ErrorIs(t, s.OpenDialog(ctx, "c", nil, nil), dialog.ErrUnknownDialog)
	assert.ErrorIs(t, s.CloseDialog(ctx, "a"), dialog.ErrNotOpen)

	require.NoError(t, s.OpenDialog(ctx, "a", 1, command.Args{"k": "v"}))
	assert.Equal(t, []string{"a"}, s.OpenNames())
	require.NoError(t, s.CloseDialog(ctx, "a"))
	assert.Empty(t, s.OpenNames())
}
