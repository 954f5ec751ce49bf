package statemachine

import (
	"context"
)

// State is a named node of a machine definition.
type State interface {
	Name() string
}

// Event is a named input that moves a machine along a transition.
type Event interface {
	Name() string
}

// Action runs while a transition is taken; an error aborts it and the
// machine keeps its state.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard decides at fire time whether a transition applies to data.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition moves From to To on Event when every guard holds. Of several
// transitions for one state and event, the first whose guards hold wins.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// Step is one entry of a machine's history.
type Step struct {
	From  State
	To    State
	Event Event
}

// StateMachine is one running instance of a Definition.
type StateMachine interface {
	Current() State
	Fire(ctx context.Context, event Event, data any) error
	CanFire(ctx context.Context, event Event, data any) bool
	History() []Step
	// Done reports whether the current state is final.
	Done() bool
	Reset()
}

// StringState is a State named by its value.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is an Event named by its value.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }
