package command

import (
	"errors"
	"fmt"
	"strings"
)

// Target selects the model a command operates on.
type Target int

const (
	TargetSelfModel Target = iota
	TargetSelfSelection
	TargetDialogParentModel
	TargetNone
)

var targetNames = map[Target]string{
	TargetSelfModel:         "model(self())",
	TargetSelfSelection:     "selection(self())",
	TargetDialogParentModel: "model(dialogParent())",
	TargetNone:              "null()",
}

func (t Target) String() string {
	if s, ok := targetNames[t]; ok {
		return s
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// ParseTarget parses a target expression. Whitespace is ignored and an
// empty expression selects the component's own model.
func ParseTarget(expr string) (Target, error) {
	compact := strings.Join(strings.Fields(expr), "")
	if compact == "" {
		return TargetSelfModel, nil
	}
	for t, s := range targetNames {
		if s == compact {
			return t, nil
		}
	}
	return 0, errors.Join(ErrInvalidTarget, fmt.Errorf("target %q", expr))
}

// Resolve returns the target model of c.
func (t Target) Resolve(c Component) (any, error) {
	switch t {
	case TargetNone:
		return nil, nil
	case TargetSelfModel, TargetSelfSelection, TargetDialogParentModel:
	default:
		return nil, errors.Join(ErrInvalidTarget, fmt.Errorf("target %d", int(t)))
	}
	if c == nil {
		return nil, nil
	}
	switch t {
	case TargetSelfSelection:
		return c.Selection(), nil
	case TargetDialogParentModel:
		parent := c.DialogParent()
		if parent == nil {
			return nil, errors.Join(ErrNoDialogParent, fmt.Errorf("component %q", c.Name()))
		}
		return parent.Model(), nil
	default:
		return c.Model(), nil
	}
}
