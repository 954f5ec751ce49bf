package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/boundsec/pkg/command"
)

// Command kinds and parameters.
const (
	KindOpen  = "dialog.open"
	KindClose = "dialog.close"

	// ParamDialog names the dialog a command opens or closes.
	ParamDialog = "dialog"

	// RuleInDialog is the name of the InDialog rule.
	RuleInDialog = "inDialog"
)

// Register adds the dialog command kinds to f.
func Register(f *command.Factories) {
	f.Register(KindOpen, OpenFactory)
	f.Register(KindClose, CloseFactory)
}

// RegisterRules adds the dialog executability rules to r.
func RegisterRules(r *command.RuleRegistry) {
	r.Register(RuleInDialog, InDialog)
}

// InDialog disables commands of components that are not part of a dialog.
var InDialog command.Rule = command.RuleFunc(func(_ context.Context, inv command.Invocation) command.ExecutableState {
	if inv.Component == nil || inv.Component.DialogParent() == nil {
		return command.NotExecutable(ReasonNotInDialog)
	}
	return command.Executable
})

// OpenFactory builds a handler opening the dialog named by the "dialog"
// parameter on the invoked component.
func OpenFactory(s command.Settings) (command.Handler, error) {
	name := s.Param(ParamDialog)
	if name == "" {
		return nil, errors.Join(ErrMissingName, fmt.Errorf("command %q", s.ID))
	}
	return &openHandler{name: name}, nil
}

type openHandler struct {
	name string
}

func (h *openHandler) Handle(ctx context.Context, inv command.Invocation) (*command.Result, error) {
	host, ok := inv.Component.(Host)
	if !ok {
		return command.Failure(KeyNoHost, ErrNoHost), nil
	}
	if err := host.OpenDialog(ctx, h.name, inv.Model, inv.Args); err != nil {
		if errors.Is(err, ErrUnknownDialog) {
			return command.Failure(KeyUnknownDialog, err), nil
		}
		return nil, err
	}
	return command.Success(), nil
}

// IsExecutable hides the opener on components that do not own the dialog.
func (h *openHandler) IsExecutable(_ context.Context, inv command.Invocation) command.ExecutableState {
	host, ok := inv.Component.(Host)
	if !ok || !host.HasDialog(h.name) {
		return command.Hidden("")
	}
	return command.Executable
}

// CloseFactory builds a handler closing a dialog. Without a "dialog"
// parameter it closes the dialog the invoked component belongs to.
// Closing never asks for confirmation.
func CloseFactory(s command.Settings) (command.Handler, error) {
	return &closeHandler{name: s.Param(ParamDialog)}, nil
}

type closeHandler struct {
	name string
}

func (h *closeHandler) NeedsConfirm(command.Settings) bool { return false }

func (h *closeHandler) Handle(ctx context.Context, inv command.Invocation) (*command.Result, error) {
	host, name, ok := h.target(inv.Component)
	if !ok {
		return command.Failure(KeyNoHost, ErrNoHost), nil
	}
	if err := host.CloseDialog(ctx, name); err != nil && !errors.Is(err, ErrNotOpen) {
		return nil, err
	}
	return command.Success().SetCloseDialog(true), nil
}

// target returns the host and dialog to close.
func (h *closeHandler) target(c command.Component) (Host, string, bool) {
	if c == nil {
		return nil, "", false
	}
	if h.name != "" {
		host, ok := c.(Host)
		return host, h.name, ok
	}
	parent := c.DialogParent()
	if parent == nil {
		return nil, "", false
	}
	host, ok := parent.(Host)
	return host, c.Name(), ok
}
