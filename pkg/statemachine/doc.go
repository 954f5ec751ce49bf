// Package statemachine provides finite state machines split into an immutable
// Definition (the transition table) and cheap per-run Machines.
//
// A Definition is built once, typically at package init, and shared:
//
//	def := statemachine.MustNew(Pending,
//	    statemachine.WithTransition(Pending, Checked, Check,
//	        statemachine.WithGuard(isAllowed)),
//	    statemachine.WithTransition(Checked, Done, Finish),
//	    statemachine.WithTerminal(Done),
//	)
//
//	m := def.Start()
//	if err := m.Fire(ctx, Check, data); err != nil {
//	    // statemachine.IsTransitionRejectedError(err) when guards refused
//	}
//	m.History() // transitions taken by this run
//
// Several transitions may share a (state, event) pair; the first whose guards
// all pass is taken. Actions run before the state changes and abort the
// transition when they return an error.
package statemachine
