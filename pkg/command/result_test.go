package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/command"
)

type recordingResumer struct {
	scope, token string
	extra        command.Args
	continued    []command.Continuation
	err          error
}

func (r *recordingResumer) Resume(_ context.Context, scope, tokenID string, extra command.Args) *command.Result {
	r.scope, r.token, r.extra = scope, tokenID, extra
	return command.Success()
}

func (r *recordingResumer) Continue(_ context.Context, _, _ string, c command.Continuation) error {
	if r.err != nil {
		return r.err
	}
	r.continued = append(r.continued, c)
	return nil
}

func TestResultStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *command.Result
		want   command.Status
	}{
		{"success", command.Success(), command.StatusSuccess},
		{"failure with key", command.Failure("x.failed", nil), command.StatusFailure},
		{"failure with error only", command.Failure("", errors.New("boom")), command.StatusFailure},
		{"failure without anything", command.Failure("", nil), command.StatusFailure},
		{"error key added later", command.Success().AddError("x.late"), command.StatusFailure},
		{"pending suspension", command.Suspend(), command.StatusSuspended},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Status())
			assert.Equal(t, tt.want == command.StatusSuccess, tt.result.IsSuccess())
		})
	}

	assert.Equal(t, []string{command.ErrKeyFailed}, command.Failure("", nil).Errors())
}

func TestResultAppend(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")

	r := command.Failure("a.failed", first).AddProcessed("o1")
	r.Append(command.Success().SetCloseDialog(true).AddProcessed("o2"))
	r.Append(command.Failure("b.failed", second))
	r.Append(nil)

	assert.Equal(t, []string{"a.failed", "b.failed", command.ErrKeyAppended + ": second"}, r.Errors())
	assert.Same(t, first, r.Err(), "first retained error wins")
	assert.True(t, r.CloseDialog())
	assert.Equal(t, []any{"o1", "o2"}, r.Processed())

	ok := command.Success()
	ok.Append(command.Failure("", second))
	assert.Same(t, second, ok.Err())
	assert.Empty(t, ok.Errors())
}

func TestResultAppendAdoptsSuspension(t *testing.T) {
	t.Parallel()

	pending := command.Suspend()
	require.NoError(t, pending.Continue(context.Background(), command.Continuation{CommandID: "next"}))
	r := command.Success().AddProcessed("o1")
	r.Append(pending)

	assert.True(t, r.IsSuspended())
	assert.Equal(t, []command.Continuation{{CommandID: "next"}}, r.Continuations())
}

func TestResultContinuations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := command.Suspend()
	require.NoError(t, r.Continue(ctx, command.Continuation{CommandID: "a"}))
	require.NoError(t, r.Continue(ctx, command.Continuation{CommandID: "b"}))
	assert.Nil(t, r.Token())

	resumer := &recordingResumer{}
	r.Init(&command.Token{
		ID:            "t1",
		Scope:         "session",
		Continuations: []command.Continuation{{CommandID: "earlier"}},
	}, resumer)
	require.NoError(t, r.Continue(ctx, command.Continuation{CommandID: "c"}))
	assert.Equal(t, []command.Continuation{{CommandID: "c"}}, resumer.continued, "persisted tokens are extended")

	resumer.err = errors.New("store down")
	assert.Error(t, r.Continue(ctx, command.Continuation{CommandID: "d"}))

	tok := r.Token()
	require.NotNil(t, tok)
	want := []string{"earlier", "a", "b", "c"}
	var got []string
	for _, c := range tok.Continuations {
		got = append(got, c.CommandID)
	}
	assert.Equal(t, want, got)
	assert.Len(t, r.Continuations(), 4)

	tok.Continuations[0].CommandID = "changed"
	assert.Equal(t, "earlier", r.Token().Continuations[0].CommandID, "token copies are detached")

	res := r.Resume(ctx, command.Args{"note": "ok"})
	assert.True(t, res.IsSuccess())
	assert.Equal(t, "session", resumer.scope)
	assert.Equal(t, "t1", resumer.token)
	assert.Equal(t, "ok", resumer.extra.String("note"))
}

func TestResultResumeWithoutToken(t *testing.T) {
	t.Parallel()

	res := command.Suspend().Resume(context.Background(), nil)
	assert.ErrorIs(t, res.Err(), command.ErrNotResumable)

	res = command.Success().Resume(context.Background(), nil)
	assert.Equal(t, command.StatusFailure, res.Status())
}

func TestResultErrorContinuations(t *testing.T) {
	t.Parallel()

	r := command.Failure("x.failed", nil).
		OnError(command.Continuation{CommandID: "rollback"}).
		OnError(command.Continuation{CommandID: "notify"})
	r.Append(command.Success().OnError(command.Continuation{CommandID: "cleanup"}))

	var got []string
	for _, c := range r.ErrorContinuations() {
		got = append(got, c.CommandID)
	}
	assert.Equal(t, []string{"rollback", "notify", "cleanup"}, got)
}

func TestArgs(t *testing.T) {
	t.Parallel()

	base := command.Args{"a": 1}
	merged := base.With(command.Args{command.ArgConfirmed: true, "b": "x"})

	assert.False(t, base.Confirmed())
	assert.True(t, merged.Confirmed())
	assert.Equal(t, "x", merged.String("b"))
	assert.Empty(t, merged.String("a"))
	assert.Len(t, base, 1, "With does not modify the receiver")

	public := merged.With(command.Args{command.ArgSecurityObject: "x"}).Public()
	assert.False(t, public.Confirmed())
	assert.NotContains(t, public, command.ArgSecurityObject)
	assert.Equal(t, "x", public.String("b"))
	assert.True(t, merged.Confirmed(), "Public does not modify the receiver")
	assert.Empty(t, command.Args(nil).Public())
}
