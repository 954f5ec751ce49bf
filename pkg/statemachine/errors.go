package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("statemachine.invalid_transition")
	ErrInvalidEvent      = errors.New("statemachine.invalid_event")
)

// ErrNoTransitionAvailable is returned by Fire when the current state has no
// transition for the event. It matches ErrInvalidEvent.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("statemachine: no transition from %q on %q", e.StateName, e.EventName)
}

func (e *ErrNoTransitionAvailable) Is(target error) bool { return target == ErrInvalidEvent }

func NewErrNoTransitionAvailable(stateName, eventName string) *ErrNoTransitionAvailable {
	return &ErrNoTransitionAvailable{StateName: stateName, EventName: eventName}
}

// ErrTransitionRejected is returned by Fire when transitions exist but every
// one of them failed a guard. It matches ErrInvalidTransition.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("statemachine: guards rejected %q from %q", e.EventName, e.StateName)
}

func (e *ErrTransitionRejected) Is(target error) bool { return target == ErrInvalidTransition }

func NewErrTransitionRejected(stateName, eventName string) *ErrTransitionRejected {
	return &ErrTransitionRejected{StateName: stateName, EventName: eventName}
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
