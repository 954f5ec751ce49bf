package command

import (
	"context"
	"slices"
	"time"
)

// Status is the tag of a Result.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSuspended:
		return "suspended"
	}
	return "unknown"
}

// ErrKeyFailed is the error key of a failure created without one.
const ErrKeyFailed = "command.error.failed"

// ErrKeyAppended prefixes a later error merged into a result that already
// retains one.
const ErrKeyAppended = "command.error.appended"

// Continuation is a command to run after a suspended command completes.
type Continuation struct {
	CommandID string `json:"command_id"`
	Component string `json:"component"`
	Args      Args   `json:"args,omitempty"`
}

// Token is the persisted state of a suspended invocation.
type Token struct {
	ID            string         `json:"id"`
	Scope         string         `json:"scope"`
	CommandID     string         `json:"command_id"`
	Component     string         `json:"component"`
	Args          Args           `json:"args,omitempty"`
	Continuations []Continuation `json:"continuations,omitempty"`
	// SecurityObject is the override the invocation was checked against,
	// restored as ArgSecurityObject on resume.
	SecurityObject *ObjectRef `json:"security_object,omitempty"`
	// Message is the i18n key shown to the user while suspended.
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Resumer re-dispatches suspended invocations and extends their tokens.
type Resumer interface {
	Resume(ctx context.Context, scope, tokenID string, extra Args) *Result
	Continue(ctx context.Context, scope, tokenID string, c Continuation) error
}

// Result is the outcome of an invocation: success, failure or suspended.
// Failures carry i18n error keys and the first retained error.
type Result struct {
	errs        []string
	err         error
	closeDialog bool
	processed   []any

	suspended     bool
	token         *Token
	continuations []Continuation
	onError       []Continuation
	resumer       Resumer
}

// Success returns an empty successful result.
func Success() *Result {
	return &Result{}
}

// Failure returns a failed result with an error key and an optional cause.
func Failure(key string, err error) *Result {
	if key == "" && err == nil {
		key = ErrKeyFailed
	}
	r := &Result{err: err}
	if key != "" {
		r.errs = append(r.errs, key)
	}
	return r
}

// Suspend returns a result asking the engine to suspend the invocation
// until it is resumed.
func Suspend() *Result {
	return &Result{suspended: true}
}

// Suspended returns a suspended result for an initialized token.
func Suspended(token *Token, resumer Resumer) *Result {
	return &Result{suspended: true, token: token, resumer: resumer}
}

// Status derives the tag of the result.
func (r *Result) Status() Status {
	switch {
	case r.suspended:
		return StatusSuspended
	case len(r.errs) > 0 || r.err != nil:
		return StatusFailure
	default:
		return StatusSuccess
	}
}

// IsSuccess reports a result without errors that is not suspended.
func (r *Result) IsSuccess() bool { return r.Status() == StatusSuccess }

// IsSuspended reports whether the invocation waits to be resumed.
func (r *Result) IsSuspended() bool { return r.suspended }

// Errors returns the error keys.
func (r *Result) Errors() []string { return slices.Clone(r.errs) }

// Err returns the retained error.
func (r *Result) Err() error { return r.err }

// AddError adds an error key.
func (r *Result) AddError(key string) *Result {
	r.errs = append(r.errs, key)
	return r
}

// CloseDialog reports whether the calling dialog should close.
func (r *Result) CloseDialog() bool { return r.closeDialog }

// SetCloseDialog sets the close-dialog flag.
func (r *Result) SetCloseDialog(v bool) *Result {
	r.closeDialog = v
	return r
}

// Processed returns the objects the command touched.
func (r *Result) Processed() []any { return slices.Clone(r.processed) }

// AddProcessed records objects the command touched.
func (r *Result) AddProcessed(objs ...any) *Result {
	r.processed = append(r.processed, objs...)
	return r
}

// Append merges other into r. Error keys and processed objects are
// concatenated and the close-dialog flags OR-ed. The first retained error
// wins; a later one is added as an ErrKeyAppended key. A suspension of
// other is adopted when r is not suspended itself.
func (r *Result) Append(other *Result) *Result {
	if other == nil {
		return r
	}
	r.errs = append(r.errs, other.errs...)
	r.closeDialog = r.closeDialog || other.closeDialog
	r.processed = append(r.processed, other.processed...)
	if other.err != nil {
		if r.err == nil {
			r.err = other.err
		} else {
			r.errs = append(r.errs, ErrKeyAppended+": "+other.err.Error())
		}
	}
	r.onError = append(r.onError, other.onError...)
	if other.suspended && !r.suspended {
		r.suspended = true
		r.token = other.token
		r.resumer = other.resumer
		r.continuations = append(r.continuations, other.continuations...)
	}
	return r
}

// Token returns the suspension token, nil until the engine initialized it.
func (r *Result) Token() *Token {
	if r.token == nil {
		return nil
	}
	t := *r.token
	t.Args = cloneArgs(r.token.Args)
	t.Continuations = slices.Clone(r.token.Continuations)
	return &t
}

// Continue adds a command to run strictly after a successful resume. It
// may be called repeatedly; continuations run in append order. Once the
// engine persisted the token, the stored token is extended as well.
func (r *Result) Continue(ctx context.Context, c Continuation) error {
	if r.token == nil {
		r.continuations = append(r.continuations, c)
		return nil
	}
	if r.resumer != nil {
		if err := r.resumer.Continue(ctx, r.token.Scope, r.token.ID, c); err != nil {
			return err
		}
	}
	r.token.Continuations = append(r.token.Continuations, c)
	return nil
}

// Continuations returns the pending continuations in append order.
func (r *Result) Continuations() []Continuation {
	if r.token != nil {
		return slices.Clone(r.token.Continuations)
	}
	return slices.Clone(r.continuations)
}

// OnError adds a command to run when the invocation fails. Error
// continuations form a chain: each runs only if the previous succeeded.
func (r *Result) OnError(c Continuation) *Result {
	r.onError = append(r.onError, c)
	return r
}

// ErrorContinuations returns the error continuation chain.
func (r *Result) ErrorContinuations() []Continuation {
	return slices.Clone(r.onError)
}

// Resume re-dispatches a suspended invocation with extra arguments.
func (r *Result) Resume(ctx context.Context, extra Args) *Result {
	if !r.suspended || r.token == nil || r.resumer == nil {
		return Failure(ErrNotResumable.Error(), ErrNotResumable)
	}
	return r.resumer.Resume(ctx, r.token.Scope, r.token.ID, extra)
}

// Init turns a pending suspension into a resumable one. It is called by
// the engine and absorbs continuations added before the token existed.
func (r *Result) Init(token *Token, resumer Resumer) *Result {
	token.Continuations = append(token.Continuations, r.continuations...)
	r.continuations = nil
	r.suspended = true
	r.token = token
	r.resumer = resumer
	return r
}

func cloneArgs(a Args) Args {
	if a == nil {
		return nil
	}
	return a.With(nil)
}
