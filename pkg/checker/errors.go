package checker

import "errors"

var (
	// ErrDuplicateChecker is returned when two checkers of one tree share a name.
	ErrDuplicateChecker = errors.New("checker.duplicate_name")

	// ErrRootNotFound is returned when a tree's root name is not among its checkers.
	ErrRootNotFound = errors.New("checker.root_not_found")

	// ErrDanglingChecker reports a checker name that resolves to no checker.
	ErrDanglingChecker = errors.New("checker.dangling_reference")

	// ErrProxyCycle reports proxies delegating to each other in a loop.
	ErrProxyCycle = errors.New("checker.proxy_cycle")

	// ErrAmbiguousDefault reports more than one checker claiming the same type and group.
	ErrAmbiguousDefault = errors.New("checker.ambiguous_default")
)
