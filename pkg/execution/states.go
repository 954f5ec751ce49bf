package execution

import (
	"context"

	"github.com/dmitrymomot/boundsec/pkg/statemachine"
)

// Invocation states.
const (
	StatePending              = statemachine.StringState("PENDING")
	StateSecurityChecked      = statemachine.StringState("SECURITY_CHECKED")
	StateExecutabilityChecked = statemachine.StringState("EXECUTABILITY_CHECKED")
	StateConfirming           = statemachine.StringState("CONFIRMING")
	StateResumed              = statemachine.StringState("RESUMED")
	StateExecuted             = statemachine.StringState("EXECUTED")
	StateSuccess              = statemachine.StringState("SUCCESS")
	StateFailed               = statemachine.StringState("FAILED")
)

// Invocation events.
const (
	EventAuthorize = statemachine.StringEvent("authorize")
	EventValidate  = statemachine.StringEvent("validate")
	EventProceed   = statemachine.StringEvent("proceed")
	EventSuspend   = statemachine.StringEvent("suspend")
	EventSucceed   = statemachine.StringEvent("succeed")
	EventFail      = statemachine.StringEvent("fail")
)

// run is the data passed to guards while an invocation advances.
type run struct {
	needsConfirm bool
	resuming     bool
}

func needsConfirm(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	r, ok := data.(*run)
	return ok && r.needsConfirm && !r.resuming
}

func resuming(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	r, ok := data.(*run)
	return ok && r.resuming
}

// lifecycle is the transition table shared by all invocations. Proceeding
// from EXECUTABILITY_CHECKED branches on guards: confirmation first, then
// a resumed invocation, then direct execution.
var lifecycle = statemachine.MustNew(StatePending,
	statemachine.WithTransition(StatePending, StateSecurityChecked, EventAuthorize),
	statemachine.WithTransition(StateSecurityChecked, StateExecutabilityChecked, EventValidate),
	statemachine.WithTransition(StateExecutabilityChecked, StateConfirming, EventProceed,
		statemachine.WithGuard(needsConfirm)),
	statemachine.WithTransition(StateExecutabilityChecked, StateResumed, EventProceed,
		statemachine.WithGuard(resuming)),
	statemachine.WithTransition(StateExecutabilityChecked, StateExecuted, EventProceed),
	statemachine.WithTransition(StateResumed, StateExecuted, EventProceed),
	statemachine.WithTransition(StateExecuted, StateSuccess, EventSucceed),
	statemachine.WithTransition(StateExecuted, StateConfirming, EventSuspend),
	statemachine.WithTransitions(failures(StatePending, StateSecurityChecked, StateExecutabilityChecked, StateResumed, StateExecuted)),
	statemachine.WithTerminal(StateSuccess, StateFailed, StateConfirming),
)

func failures(from ...statemachine.State) []statemachine.TransitionDef {
	defs := make([]statemachine.TransitionDef, 0, len(from))
	for _, s := range from {
		defs = append(defs, statemachine.TransitionDef{From: s, To: StateFailed, Event: EventFail})
	}
	return defs
}
