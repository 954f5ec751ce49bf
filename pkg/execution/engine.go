package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/boundsec/pkg/audit"
	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/statemachine"
)

// Commands resolves command ids. *command.Registry implements it.
type Commands interface {
	Resolve(id string) (*command.Command, error)
}

// Components resolves live components by name.
type Components interface {
	Component(ctx context.Context, name string) (command.Component, error)
}

// DefaultCheckers finds the checker authoritative for an object.
// *checker.Resolver implements it.
type DefaultCheckers interface {
	DefaultAllowing(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) (checker.Checker, bool)
}

// ComponentMap is a fixed set of components keyed by name.
type ComponentMap map[string]command.Component

func (m ComponentMap) Component(_ context.Context, name string) (command.Component, error) {
	c, ok := m[name]
	if !ok {
		return nil, errors.Join(ErrObjectNotFound, fmt.Errorf("component %q", name))
	}
	return c, nil
}

// Engine runs command invocations through security, executability and
// confirmation gates and resumes suspended ones. It is safe for
// concurrent use; every invocation runs its own state machine.
type Engine struct {
	commands   Commands
	components Components
	store      TokenStore
	defaults   DefaultCheckers
	audit      *audit.Logger
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenStore sets where suspended invocations are kept.
func WithTokenStore(s TokenStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithDefaultCheckers makes security objects other than the invocation's
// model be authorized by their default checker. Objects without one are
// still checked by the invoking component.
func WithDefaultCheckers(d DefaultCheckers) Option {
	return func(e *Engine) { e.defaults = d }
}

// WithAudit records every invocation outcome in the audit trail.
func WithAudit(l *audit.Logger) Option {
	return func(e *Engine) { e.audit = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the token id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an engine resolving commands and components for
// resumes and continuations. Without a token store a MemoryStore is used.
func NewEngine(commands Commands, components Components, opts ...Option) *Engine {
	e := &Engine{
		commands:   commands,
		components: components,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewMemoryStore()
	}
	return e
}

// Execute runs cmd for inv. Failures are reported in the result and never
// returned as errors or panics.
func (e *Engine) Execute(ctx context.Context, cmd *command.Command, inv command.Invocation) *command.Result {
	res := e.run(ctx, cmd, inv, false, nil)
	if !res.IsSuspended() && !res.IsSuccess() {
		e.runErrorContinuations(ctx, res)
	}
	return res
}

// Invoke resolves the command and the component by name, then executes
// like Execute. Unknown names and unresolvable targets fail with
// ErrObjectNotFound.
func (e *Engine) Invoke(ctx context.Context, commandID, componentName string, args command.Args) *command.Result {
	cmd, inv, fail := e.prepare(ctx, commandID, componentName, args)
	if fail != nil {
		e.record(ctx, audit.ActionFailed, commandID, componentName, fail.Err())
		return fail
	}
	return e.Execute(ctx, cmd, inv)
}

// CheckSecurity reports whether the acting user may run cmd for inv.
func (e *Engine) CheckSecurity(ctx context.Context, cmd *command.Command, inv command.Invocation) bool {
	u, _ := rbac.UserFromContext(ctx)
	obj := cmd.SecurityObject(inv)
	if inv.Component == nil {
		return rbac.IsNil(obj)
	}
	if e.defaults != nil && !rbac.IsNil(obj) && !sameObject(obj, inv.Model) {
		if c, ok := e.defaults.DefaultAllowing(ctx, u, obj, cmd.Group()); c != nil {
			e.logger.DebugContext(ctx, "security object checked by its default checker",
				logger.Command(cmd.ID()),
				logger.Checker(c.Name()),
				logger.ObjectType(obj.TypeName()),
			)
			return ok
		}
	}
	return inv.Component.Allow(ctx, u, obj, cmd.Group())
}

// Resume consumes a suspended invocation and runs it again with the
// confirmation marker and extra arguments. Security and executability are
// checked again, against the stored security object override if the
// suspended invocation carried one. On success the token's continuations run in append order.
func (e *Engine) Resume(ctx context.Context, scope, tokenID string, extra command.Args) *command.Result {
	ctx = WithScope(ctx, scope)
	tok, err := e.store.Take(ctx, scope, tokenID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return command.Failure(KeyTokenNotFound, err)
		}
		return command.Failure(KeyExecutionFailure, errors.Join(ErrExecutionFailure, err))
	}

	cmd, inv, fail := e.prepare(ctx, tok.CommandID, tok.Component, tok.Args.With(extra))
	if fail != nil {
		e.record(ctx, audit.ActionFailed, tok.CommandID, tok.Component, fail.Err())
		return fail
	}
	inv.Args[command.ArgConfirmed] = true
	if tok.SecurityObject != nil {
		inv.Args[command.ArgSecurityObject] = tok.SecurityObject.Object()
	}

	e.record(ctx, audit.ActionResumed, tok.CommandID, tok.Component, nil)
	res := e.run(ctx, cmd, inv, true, tok.Continuations)
	switch {
	case res.IsSuspended():
		return res
	case !res.IsSuccess():
		e.runErrorContinuations(ctx, res)
		return res
	}
	return e.runContinuations(ctx, res, tok.Continuations)
}

// Continue appends a continuation to a stored suspension. It fails with
// ErrTokenNotFound once the suspension was resumed or discarded.
func (e *Engine) Continue(ctx context.Context, scope, tokenID string, c command.Continuation) error {
	return e.store.Update(ctx, scope, tokenID, func(tok *command.Token) error {
		tok.Continuations = append(tok.Continuations, c)
		return nil
	})
}

// Discard abandons a suspended invocation.
func (e *Engine) Discard(ctx context.Context, scope, tokenID string) error {
	tok, err := e.store.Take(ctx, scope, tokenID)
	if err != nil {
		return err
	}
	e.record(WithScope(ctx, scope), audit.ActionDiscarded, tok.CommandID, tok.Component, nil)
	return nil
}

// Token returns a stored suspension without consuming it.
func (e *Engine) Token(ctx context.Context, scope, tokenID string) (*command.Token, error) {
	return e.store.Load(ctx, scope, tokenID)
}

// run drives one invocation through the lifecycle. carry holds
// continuations a new suspension must absorb.
func (e *Engine) run(ctx context.Context, cmd *command.Command, inv command.Invocation, resumed bool, carry []command.Continuation) *command.Result {
	m := lifecycle.Start()
	state := &run{
		needsConfirm: cmd.NeedsConfirm() && !inv.Args.Confirmed(),
		resuming:     resumed,
	}
	start := e.now()
	compName := componentName(inv.Component)
	log := e.logger.With(logger.Command(cmd.ID()), logger.Component(compName))

	defer func() {
		log.DebugContext(ctx, "command invocation finished",
			logger.State(m.Current().Name()),
			slog.Any("history", history(m.History())),
			logger.Duration(e.now().Sub(start)),
		)
	}()

	fire := func(ev statemachine.Event) {
		if err := m.Fire(ctx, ev, state); err != nil {
			log.ErrorContext(ctx, "invalid invocation transition", logger.Error(err))
		}
	}
	fail := func(action string, res *command.Result) *command.Result {
		fire(EventFail)
		err := res.Err()
		if err == nil {
			err = errors.New(strings.Join(res.Errors(), ", "))
		}
		e.record(ctx, action, cmd.ID(), compName, err)
		return res
	}

	if !e.CheckSecurity(ctx, cmd, inv) {
		return fail(audit.ActionDenied, command.Failure(KeyPermissionDenied,
			errors.Join(ErrPermissionDenied, fmt.Errorf("command %q on %q", cmd.ID(), compName))))
	}
	fire(EventAuthorize)

	if s := cmd.IsExecutable(ctx, inv); !s.Executable {
		return fail(audit.ActionNotExecutable, command.Failure(s.ReasonKey, NewNotExecutableError(s.ReasonKey)))
	}
	fire(EventValidate)

	fire(EventProceed)
	switch m.Current() {
	case StateConfirming:
		pending := command.Suspend()
		return e.suspend(ctx, cmd, inv, pending, cmd.ConfirmKey(), carry)
	case StateResumed:
		fire(EventProceed)
	}

	res := e.invoke(ctx, cmd, inv)
	switch {
	case res.IsSuspended():
		fire(EventSuspend)
		return e.suspend(ctx, cmd, inv, res, "", carry)
	case res.IsSuccess():
		fire(EventSucceed)
		e.record(ctx, audit.ActionExecuted, cmd.ID(), compName, nil)
		return res
	default:
		return fail(audit.ActionFailed, res)
	}
}

// invoke runs the command body, turning errors and panics into failures.
func (e *Engine) invoke(ctx context.Context, cmd *command.Command, inv command.Invocation) (res *command.Result) {
	defer func() {
		if v := recover(); v != nil {
			perr := NewPanicError(v, debug.Stack())
			e.logger.ErrorContext(ctx, "command body panicked",
				logger.Command(cmd.ID()),
				logger.Error(perr),
			)
			res = command.Failure(KeyExecutionFailure, errors.Join(ErrExecutionFailure, perr))
		}
	}()

	out, err := cmd.Handler().Handle(ctx, inv)
	if err != nil {
		failure := command.Failure(KeyExecutionFailure, errors.Join(ErrExecutionFailure, err))
		return failure.Append(out)
	}
	if out == nil {
		return command.Success()
	}
	return out
}

// suspend persists a token for inv and turns pending into a resumable
// result. Continuations of pending come before carried ones.
func (e *Engine) suspend(ctx context.Context, cmd *command.Command, inv command.Invocation, pending *command.Result, message string, carry []command.Continuation) *command.Result {
	args := inv.Args.With(nil)
	delete(args, command.ArgConfirmed)
	delete(args, command.ArgSecurityObject)

	tok := &command.Token{
		ID:        e.newID(),
		Scope:     ScopeFromContext(ctx),
		CommandID: cmd.ID(),
		Component: componentName(inv.Component),
		Args:      args,
		Message:   message,
		CreatedAt: e.now(),
	}
	if obj, ok := inv.Args[command.ArgSecurityObject].(rbac.Object); ok {
		tok.SecurityObject = command.NewObjectRef(obj)
	}
	pending.Init(tok, e)
	tok.Continuations = append(tok.Continuations, carry...)

	if err := e.store.Save(ctx, tok); err != nil {
		e.logger.ErrorContext(ctx, "failed to store suspension",
			logger.Command(cmd.ID()),
			logger.Token(tok.ID),
			logger.Error(err),
		)
		return command.Failure(KeyExecutionFailure, errors.Join(ErrExecutionFailure, err))
	}
	e.record(ctx, audit.ActionSuspended, cmd.ID(), tok.Component, nil)
	return pending
}

// runContinuations runs continuations after a successful resume. A
// suspension absorbs the remaining continuations; a failure drops them.
func (e *Engine) runContinuations(ctx context.Context, res *command.Result, conts []command.Continuation) *command.Result {
	for i, c := range conts {
		cmd, inv, fail := e.prepare(ctx, c.CommandID, c.Component, c.Args.With(nil))
		if fail != nil {
			e.record(ctx, audit.ActionFailed, c.CommandID, c.Component, fail.Err())
			return res.Append(fail)
		}
		next := e.run(ctx, cmd, inv, false, conts[i+1:])
		res.Append(next)
		if !next.IsSuccess() {
			if !next.IsSuspended() {
				e.runErrorContinuations(ctx, next)
			}
			return res
		}
	}
	return res
}

// runErrorContinuations runs the error continuation chain of a failed
// result. Each link runs only if the previous one succeeded.
func (e *Engine) runErrorContinuations(ctx context.Context, res *command.Result) {
	for _, c := range res.ErrorContinuations() {
		cmd, inv, fail := e.prepare(ctx, c.CommandID, c.Component, c.Args.With(nil))
		if fail != nil {
			e.logger.WarnContext(ctx, "error continuation cannot run",
				logger.Command(c.CommandID),
				logger.Error(fail.Err()),
			)
			return
		}
		next := e.run(ctx, cmd, inv, false, nil)
		res.AddProcessed(next.Processed()...)
		res.SetCloseDialog(res.CloseDialog() || next.CloseDialog())
		if !next.IsSuccess() {
			return
		}
	}
}

// prepare resolves a stored command reference into an invocation.
func (e *Engine) prepare(ctx context.Context, commandID, componentName string, args command.Args) (*command.Command, command.Invocation, *command.Result) {
	notFound := func(err error) *command.Result {
		return command.Failure(KeyObjectNotFound, errors.Join(ErrObjectNotFound, err))
	}
	if e.commands == nil || e.components == nil {
		return nil, command.Invocation{}, notFound(errors.New("engine has no command or component resolver"))
	}
	cmd, err := e.commands.Resolve(commandID)
	if err != nil {
		return nil, command.Invocation{}, notFound(err)
	}
	comp, err := e.components.Component(ctx, componentName)
	if err != nil {
		return nil, command.Invocation{}, notFound(err)
	}
	model, err := cmd.Target().Resolve(comp)
	if err != nil {
		return nil, command.Invocation{}, notFound(err)
	}
	if args == nil {
		args = command.Args{}
	}
	return cmd, command.Invocation{Component: comp, Model: model, Args: args}, nil
}

func (e *Engine) record(ctx context.Context, action, commandID, component string, err error) {
	if e.audit == nil {
		return
	}
	opts := []audit.EventOption{
		audit.WithResource("command", commandID),
		audit.WithMetadata("component", component),
	}
	var aerr error
	if err != nil {
		aerr = e.audit.LogError(ctx, action, err, append(opts, audit.WithResult(audit.ResultFailure))...)
	} else {
		aerr = e.audit.Log(ctx, action, opts...)
	}
	if aerr != nil {
		e.logger.WarnContext(ctx, "failed to record audit event",
			logger.Command(commandID),
			logger.Error(aerr),
		)
	}
}

// sameObject reports whether model is obj, compared by type and id.
func sameObject(obj rbac.Object, model any) bool {
	m, ok := model.(rbac.Object)
	if !ok || rbac.IsNil(m) {
		return false
	}
	return m.TypeName() == obj.TypeName() && m.ObjectID() == obj.ObjectID()
}

func componentName(c command.Component) string {
	if c == nil {
		return ""
	}
	return c.Name()
}

func history(steps []statemachine.Step) []string {
	out := make([]string, 0, len(steps)+1)
	for i, s := range steps {
		if i == 0 {
			out = append(out, s.From.Name())
		}
		out = append(out, s.To.Name())
	}
	return out
}
