package statemachine

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Machine is one run over a Definition. It is safe for concurrent use,
// although a run normally belongs to a single call chain.
type Machine struct {
	def     *Definition
	current State
	history []Step
	mu      sync.RWMutex
}

var _ StateMachine = (*Machine)(nil)

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// History returns the transitions taken so far, oldest first.
func (m *Machine) History() []Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.history)
}

// Done reports whether the machine sits in a terminal state.
func (m *Machine) Done() bool {
	return m.def.IsTerminal(m.Current())
}

// Fire applies the first transition for event whose guards all pass.
// Actions run before the state changes; a failing action aborts the transition.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	transitions := m.def.candidates(m.current, event)
	if len(transitions) == 0 {
		return NewErrNoTransitionAvailable(m.current.Name(), event.Name())
	}

	// First transition with passing guards wins (enables priority ordering)
	t, ok := m.firstPassing(ctx, transitions, event, data)
	if !ok {
		return NewErrTransitionRejected(m.current.Name(), event.Name())
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.history = append(m.history, Step{From: m.current, To: t.To, Event: event})
	m.current = t.To
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.firstPassing(ctx, m.def.candidates(m.current, event), event, data)
	return ok
}

// Reset returns the machine to the initial state and clears its history.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.def.initial
	m.history = nil
}

// Must be called with lock held.
func (m *Machine) firstPassing(ctx context.Context, transitions []Transition, event Event, data any) (Transition, bool) {
	for _, t := range transitions {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return t, true
		}
	}
	return Transition{}, false
}
