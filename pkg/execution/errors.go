package execution

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("execution.permission_denied")
	ErrNotExecutable    = errors.New("execution.not_executable")
	ErrObjectNotFound   = errors.New("execution.object_not_found")
	ErrExecutionFailure = errors.New("execution.failure")
	ErrTokenNotFound    = errors.New("execution.token_not_found")
)

// Error keys reported in command results.
const (
	KeyPermissionDenied = "command.error.permission_denied"
	KeyObjectNotFound   = "command.error.object_not_found"
	KeyExecutionFailure = "command.error.execution_failure"
	KeyTokenNotFound    = "command.error.token_not_found"
)

// NotExecutableError carries the reason key of a failed executability rule.
type NotExecutableError struct {
	ReasonKey string
}

func (e *NotExecutableError) Error() string {
	return fmt.Sprintf("command not executable: %s", e.ReasonKey)
}

func (e *NotExecutableError) Is(target error) bool {
	return target == ErrNotExecutable
}

func NewNotExecutableError(reasonKey string) *NotExecutableError {
	return &NotExecutableError{ReasonKey: reasonKey}
}

func IsNotExecutableError(err error) bool {
	var e *NotExecutableError
	return errors.As(err, &e)
}

// PanicError wraps a value recovered from a panicking command body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command panicked: %v", e.Value)
}

func (e *PanicError) Is(target error) bool {
	return target == ErrExecutionFailure
}

func NewPanicError(value any, stack []byte) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}

func IsPanicError(err error) bool {
	var e *PanicError
	return errors.As(err, &e)
}
