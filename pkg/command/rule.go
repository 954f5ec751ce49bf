package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Reason keys of the built-in rules.
const (
	ReasonNoModel = "command.disabled.no_model"
	ReasonHidden  = "command.hidden"
)

// ExecutableState is the outcome of an executability rule.
type ExecutableState struct {
	Executable bool
	Hidden     bool
	// ReasonKey explains why the command is disabled.
	ReasonKey string
}

// Executable is the state of an enabled command.
var Executable = ExecutableState{Executable: true}

// NotExecutable disables a command for the given reason.
func NotExecutable(reasonKey string) ExecutableState {
	return ExecutableState{ReasonKey: reasonKey}
}

// Hidden hides and disables a command.
func Hidden(reasonKey string) ExecutableState {
	if reasonKey == "" {
		reasonKey = ReasonHidden
	}
	return ExecutableState{Hidden: true, ReasonKey: reasonKey}
}

// Rule decides whether a command can run for an invocation. Rules must not
// have side effects.
type Rule interface {
	IsExecutable(ctx context.Context, inv Invocation) ExecutableState
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(ctx context.Context, inv Invocation) ExecutableState

func (f RuleFunc) IsExecutable(ctx context.Context, inv Invocation) ExecutableState {
	return f(ctx, inv)
}

// Built-in rules.
var (
	Always Rule = RuleFunc(func(context.Context, Invocation) ExecutableState {
		return Executable
	})

	HasModel Rule = RuleFunc(func(_ context.Context, inv Invocation) ExecutableState {
		if inv.Model == nil {
			return NotExecutable(ReasonNoModel)
		}
		return Executable
	})

	NullModelHidden Rule = RuleFunc(func(_ context.Context, inv Invocation) ExecutableState {
		if inv.Model == nil {
			return Hidden(ReasonNoModel)
		}
		return Executable
	})
)

type andRule []Rule

func (rs andRule) IsExecutable(ctx context.Context, inv Invocation) ExecutableState {
	for _, r := range rs {
		if s := r.IsExecutable(ctx, inv); !s.Executable {
			return s
		}
	}
	return Executable
}

// And combines rules in order. The first non-executable state wins and
// later rules are not evaluated.
func And(rules ...Rule) Rule {
	out := make(andRule, 0, len(rules))
	for _, r := range rules {
		switch r := r.(type) {
		case nil:
		case andRule:
			out = append(out, r...)
		default:
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return Always
	case 1:
		return out[0]
	}
	return out
}

// RuleRegistry maps rule names used in configuration to rules.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRuleRegistry creates a registry holding "always", "hasModel" and
// "nullModelHidden".
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string]Rule)}
	r.Register("always", Always)
	r.Register("hasModel", HasModel)
	r.Register("nullModelHidden", NullModelHidden)
	return r
}

// Register adds or replaces a named rule.
func (r *RuleRegistry) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
}

// Lookup returns the rule registered as name.
func (r *RuleRegistry) Lookup(name string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	if !ok {
		return nil, errors.Join(ErrUnknownRule, fmt.Errorf("rule %q", name))
	}
	return rule, nil
}

// Names returns the registered rule names, sorted.
func (r *RuleRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for n := range r.rules {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
