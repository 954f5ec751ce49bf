package statemachine

import (
	"fmt"
)

// Definition is an immutable transition table. It is built once and shared by
// any number of concurrently running machines created with Start.
type Definition struct {
	initial     State
	transitions map[string]map[string][]Transition
	terminal    map[string]struct{}
}

// Option configures a Definition during construction.
type Option func(*Definition) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*transitionConfig)

// TransitionDef defines a transition between states.
type TransitionDef struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a definition with the given initial state and options.
func New(initialState State, opts ...Option) (*Definition, error) {
	if initialState == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}

	d := &Definition{
		initial:     initialState,
		transitions: make(map[string]map[string][]Transition),
		terminal:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustNew is New that panics on invalid options.
func MustNew(initialState State, opts ...Option) *Definition {
	d, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return d
}

// Initial returns the state every machine starts in.
func (d *Definition) Initial() State {
	return d.initial
}

// IsTerminal reports whether s was declared terminal.
func (d *Definition) IsTerminal(s State) bool {
	if s == nil {
		return false
	}
	_, ok := d.terminal[s.Name()]
	return ok
}

// Start returns a new machine in the initial state.
func (d *Definition) Start() *Machine {
	return &Machine{def: d, current: d.initial}
}

func (d *Definition) addTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	fromName := from.Name()
	if _, ok := d.transitions[fromName]; !ok {
		d.transitions[fromName] = make(map[string][]Transition)
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	d.transitions[fromName][event.Name()] = append(d.transitions[fromName][event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (d *Definition) candidates(from State, event Event) []Transition {
	return d.transitions[from.Name()][event.Name()]
}

// WithTransition adds a single transition.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(d *Definition) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		return d.addTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTransitions adds multiple transitions at once.
func WithTransitions(transitions []TransitionDef) Option {
	return func(d *Definition) error {
		for i, t := range transitions {
			if err := d.addTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				return fmt.Errorf("failed to add transition[%d] %s->%s on %s: %w",
					i, nameOf(t.From), nameOf(t.To), nameOf(t.Event), err)
			}
		}
		return nil
	}
}

// WithTerminal marks states in which a machine is done.
func WithTerminal(states ...State) Option {
	return func(d *Definition) error {
		for _, s := range states {
			if s == nil {
				return ErrInvalidTransition
			}
			d.terminal[s.Name()] = struct{}{}
		}
		return nil
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards(guards ...Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, guard := range guards {
			if guard != nil {
				cfg.guards = append(cfg.guards, guard)
			}
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

// WithActions adds multiple actions to a transition.
func WithActions(actions ...Action) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, action := range actions {
			if action != nil {
				cfg.actions = append(cfg.actions, action)
			}
		}
	}
}

func nameOf(v interface{ Name() string }) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}
