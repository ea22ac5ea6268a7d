package actor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bhandras/termroom/internal/actor"
	"github.com/bhandras/termroom/internal/actor/actortest"
	"github.com/stretchr/testify/require"
)

type addInput struct {
	actor.InputBase
	n int
}

type echoInput struct {
	actor.InputBase
	n int
}

type echoEffect struct {
	actor.EffectBase
	n int
}

func sumReducer(state int, input actor.Input) (int, []actor.Effect) {
	switch in := input.(type) {
	case addInput:
		return state + in.n, []actor.Effect{echoEffect{n: in.n}}
	case echoInput:
		return state + 1000*in.n, nil
	default:
		return state, nil
	}
}

func TestActor_ProcessesInputsInOrder(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New(0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	for i := 1; i <= 5; i++ {
		require.NoError(t, a.Send(addInput{n: i}))
	}

	require.Eventually(t, func() bool { return a.State() == 15 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(rt.Effects()) == 5 }, 2*time.Second, 5*time.Millisecond)

	effects := actortest.EffectsOf[echoEffect](rt)
	for i, eff := range effects {
		require.Equal(t, i+1, eff.n)
	}
}

func TestActor_RuntimeEmitsFollowUps(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{
		React: func(_ context.Context, eff actor.Effect, emit func(actor.Input)) {
			if e, ok := eff.(echoEffect); ok {
				emit(echoInput{n: e.n})
			}
		},
	}
	a := actor.New(0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	require.NoError(t, a.Send(addInput{n: 2}))
	require.Eventually(t, func() bool { return a.State() == 2002 }, 2*time.Second, 5*time.Millisecond)
}

func TestActor_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New(0, sumReducer, rt)
	a.Start()

	a.Stop()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit")
	}
	require.True(t, a.Stopped())
	require.Equal(t, 1, rt.StopCount())
	require.ErrorIs(t, a.Send(addInput{n: 1}), actor.ErrStopped)
	require.False(t, a.Enqueue(addInput{n: 1}))
}

func TestActor_MailboxFull(t *testing.T) {
	t.Parallel()

	// Not started, so nothing drains the mailbox.
	a := actor.New(0, sumReducer, nil, actor.WithMailboxSize[int](1))
	require.NoError(t, a.Send(addInput{n: 1}))
	require.ErrorIs(t, a.Send(addInput{n: 1}), actor.ErrMailboxFull)
	a.Stop()
}

func TestActor_HooksObserveTransitions(t *testing.T) {
	t.Parallel()

	var inputs, transitions atomic.Int32
	a := actor.New(0, sumReducer, nil, actor.WithHooks(actor.Hooks[int]{
		OnInput: func(actor.Input) { inputs.Add(1) },
		OnTransition: func(prev, next int, _ actor.Input) {
			if next == prev+3 {
				transitions.Add(1)
			}
		},
	}))
	a.Start()
	defer a.Stop()

	require.NoError(t, a.Send(addInput{n: 3}))
	require.Eventually(t, func() bool { return transitions.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), inputs.Load())
}

func TestActor_PanicHook(t *testing.T) {
	t.Parallel()

	recovered := make(chan any, 1)
	boom := func(int, actor.Input) (int, []actor.Effect) { panic("boom") }
	a := actor.New(0, boom, nil, actor.WithHooks(actor.Hooks[int]{
		OnPanic: func(r any) { recovered <- r },
	}))
	a.Start()
	defer a.Stop()

	require.NoError(t, a.Send(addInput{n: 1}))
	select {
	case r := <-recovered:
		require.Equal(t, "boom", r)
	case <-time.After(2 * time.Second):
		t.Fatal("panic hook not called")
	}
	<-a.Done()
}

// captureRuntime hands the emit function to the test.
type captureRuntime struct {
	emit chan func(actor.Input)
}

func (r *captureRuntime) HandleEffects(_ context.Context, _ []actor.Effect, emit func(actor.Input)) {
	select {
	case r.emit <- emit:
	default:
	}
}

func (r *captureRuntime) Stop() {}

type seqState struct {
	count   int
	ordered bool
}

type seqInput struct {
	actor.InputBase
	n int
}

func TestActor_EmitBurstKeepsOrderAndDropsNothing(t *testing.T) {
	t.Parallel()

	const total = 5000

	rt := &captureRuntime{emit: make(chan func(actor.Input), 1)}
	reduce := func(s seqState, in actor.Input) (seqState, []actor.Effect) {
		switch in := in.(type) {
		case addInput:
			return s, []actor.Effect{echoEffect{n: in.n}}
		case seqInput:
			if in.n != s.count {
				s.ordered = false
			}
			s.count++
		}
		return s, nil
	}
	// A small mailbox: follow-ups must not depend on its capacity.
	a := actor.New(seqState{ordered: true}, reduce, rt, actor.WithMailboxSize[seqState](4))
	a.Start()
	defer a.Stop()

	require.NoError(t, a.Send(addInput{n: 1}))
	var emit func(actor.Input)
	select {
	case emit = <-rt.emit:
	case <-time.After(2 * time.Second):
		t.Fatal("runtime never ran")
	}

	for i := 0; i < total; i++ {
		emit(seqInput{n: i})
	}

	require.Eventually(t, func() bool { return a.State().count == total }, 5*time.Second, 5*time.Millisecond)
	require.True(t, a.State().ordered)
}

func TestActor_EmitAfterStopIsIgnored(t *testing.T) {
	t.Parallel()

	rt := &captureRuntime{emit: make(chan func(actor.Input), 1)}
	a := actor.New(0, sumReducer, rt)
	a.Start()

	require.NoError(t, a.Send(addInput{n: 1}))
	emit := <-rt.emit
	require.Eventually(t, func() bool { return a.State() == 1 }, 2*time.Second, 5*time.Millisecond)

	a.Stop()
	<-a.Done()
	emit(echoInput{n: 1})
	require.Equal(t, 1, a.State())
}
