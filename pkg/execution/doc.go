// Package execution runs command invocations as a state machine.
//
// Every invocation passes strictly ordered gates:
//
//	PENDING -> SECURITY_CHECKED -> EXECUTABILITY_CHECKED -> {CONFIRMING -> RESUMED} -> EXECUTED -> {SUCCESS | FAILED}
//
// A command requiring confirmation is suspended instead of executed: the
// Engine stores a command.Token in its TokenStore under the scope from
// WithScope and returns a suspended result. A later request calls Resume
// with the token id; the invocation is checked again, executed with the
// confirmation marker and followed by its continuations in append order.
// A continuation that suspends again absorbs the remaining ones.
//
// Execute never returns an error or panics. Denials, disabled commands and
// body failures are reported in the result with an error key and a cause
// matching ErrPermissionDenied, ErrNotExecutable, ErrObjectNotFound or
// ErrExecutionFailure.
package execution
