package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/statemachine"
)

const (
	Draft     = statemachine.StringState("draft")
	InReview  = statemachine.StringState("in_review")
	Approved  = statemachine.StringState("approved")
	Rejected  = statemachine.StringState("rejected")
	Published = statemachine.StringState("published")

	Submit  = statemachine.StringEvent("submit")
	Approve = statemachine.StringEvent("approve")
	Reject  = statemachine.StringEvent("reject")
	Publish = statemachine.StringEvent("publish")
)

func TestDefinition_BasicRun(t *testing.T) {
	t.Parallel()

	def := statemachine.MustNew(Draft,
		statemachine.WithTransition(Draft, InReview, Submit),
		statemachine.WithTransition(InReview, Approved, Approve),
		statemachine.WithTransition(Approved, Published, Publish),
		statemachine.WithTerminal(Published),
	)
	ctx := context.Background()

	m := def.Start()
	assert.Equal(t, statemachine.State(Draft), m.Current())
	assert.True(t, m.CanFire(ctx, Submit, nil))
	assert.False(t, m.CanFire(ctx, Approve, nil))

	require.NoError(t, m.Fire(ctx, Submit, nil))
	require.NoError(t, m.Fire(ctx, Approve, nil))
	assert.False(t, m.Done())
	require.NoError(t, m.Fire(ctx, Publish, nil))
	assert.True(t, m.Done())

	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, statemachine.Step{From: Draft, To: InReview, Event: Submit}, history[0])
	assert.Equal(t, statemachine.State(Published), history[2].To)

	m.Reset()
	assert.Equal(t, statemachine.State(Draft), m.Current())
	assert.Empty(t, m.History())
}

func TestDefinition_RunsAreIndependent(t *testing.T) {
	t.Parallel()

	def := statemachine.MustNew(Draft, statemachine.WithTransition(Draft, InReview, Submit))
	ctx := context.Background()

	a, b := def.Start(), def.Start()
	require.NoError(t, a.Fire(ctx, Submit, nil))
	assert.Equal(t, statemachine.State(InReview), a.Current())
	assert.Equal(t, statemachine.State(Draft), b.Current())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := def.Start()
			assert.NoError(t, m.Fire(ctx, Submit, nil))
		}()
	}
	wg.Wait()
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	approveIf := func(ok bool) statemachine.Guard {
		return func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
			v, _ := data.(bool)
			return v == ok
		}
	}

	def := statemachine.MustNew(InReview,
		statemachine.WithTransition(InReview, Approved, Approve, statemachine.WithGuard(approveIf(true))),
		statemachine.WithTransition(InReview, Rejected, Approve, statemachine.WithGuards(approveIf(false), nil)),
	)

	t.Run("first passing transition wins", func(t *testing.T) {
		t.Parallel()
		m := def.Start()
		require.NoError(t, m.Fire(ctx, Approve, true))
		assert.Equal(t, statemachine.State(Approved), m.Current())

		m = def.Start()
		require.NoError(t, m.Fire(ctx, Approve, false))
		assert.Equal(t, statemachine.State(Rejected), m.Current())
	})

	t.Run("rejected when no guard passes", func(t *testing.T) {
		t.Parallel()
		m := def.Start()
		err := m.Fire(ctx, Approve, "not a bool")
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
		assert.Equal(t, statemachine.State(InReview), m.Current())
	})

	t.Run("no transition for event", func(t *testing.T) {
		t.Parallel()
		m := def.Start()
		err := m.Fire(ctx, Publish, nil)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.ErrorIs(t, err, statemachine.ErrInvalidEvent)
		assert.ErrorIs(t, m.Fire(ctx, nil, nil), statemachine.ErrInvalidEvent)
		assert.False(t, m.CanFire(ctx, nil, nil))
	})
}

func TestMachine_Actions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("boom")
	var calls []string

	def := statemachine.MustNew(Draft,
		statemachine.WithTransition(Draft, InReview, Submit, statemachine.WithActions(
			func(_ context.Context, from, to statemachine.State, _ statemachine.Event, _ any) error {
				calls = append(calls, from.Name()+"->"+to.Name())
				return nil
			},
		)),
		statemachine.WithTransition(InReview, Rejected, Reject, statemachine.WithAction(
			func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return boom
			},
		)),
	)

	m := def.Start()
	require.NoError(t, m.Fire(ctx, Submit, nil))
	assert.Equal(t, []string{"draft->in_review"}, calls)

	err := m.Fire(ctx, Reject, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, statemachine.State(InReview), m.Current())
	assert.Len(t, m.History(), 1)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New(nil)
	assert.Error(t, err)

	_, err = statemachine.New(Draft, statemachine.WithTransition(nil, InReview, Submit))
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	_, err = statemachine.New(Draft, statemachine.WithTransitions([]statemachine.TransitionDef{
		{From: Draft, To: InReview, Event: Submit},
		{From: InReview, To: nil, Event: Approve},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transition[1]")

	assert.Panics(t, func() { statemachine.MustNew(nil) })

	def := statemachine.MustNew(Draft, statemachine.WithTerminal(Published))
	assert.Equal(t, statemachine.State(Draft), def.Initial())
	assert.True(t, def.IsTerminal(Published))
	assert.False(t, def.IsTerminal(nil))
}
