// Package actor runs state machines on a single goroutine.
//
// A reducer owns the state transition: given the current state and one input
// it returns the next state plus a list of effects. Effects are plain data; a
// Runtime interprets them (network emits, HTTP requests, subscriptions) and
// reports results back as new inputs. Only the loop goroutine touches the
// state, so reducers need no locking and can be tested without goroutines.
//
// Inputs arrive on two queues. Send uses a bounded mailbox and fails fast when
// it is full. Inputs emitted by the runtime go to an unbounded FIFO and are
// never dropped, so results and pushed data keep their order under bursts.
package actor

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when an input is offered to a stopped actor.
var ErrStopped = errors.New("actor stopped")

// ErrMailboxFull is returned when Send finds the mailbox full.
var ErrMailboxFull = errors.New("actor mailbox full")

// defaultMailboxSize bounds the number of queued inputs per actor.
const defaultMailboxSize = 256

// Input is an item delivered to an actor mailbox. Embed InputBase to
// implement it.
type Input interface {
	isActorInput()
}

// Effect is a side-effect requested by a reducer. Embed EffectBase to
// implement it.
type Effect interface {
	isActorEffect()
}

// ReducerFunc computes the next state for one input. It must not perform I/O
// or start goroutines.
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime executes effects on behalf of an actor.
type Runtime interface {
	// HandleEffects runs on the loop goroutine and must return promptly;
	// anything that waits belongs in a goroutine that later calls emit.
	// emit never blocks and may be called from any goroutine. Emitting
	// after ctx is canceled is a no-op.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop releases background work. It may be called more than once.
	Stop()
}

// Hooks observe an actor's execution. All hooks run on the loop goroutine.
type Hooks[S any] struct {
	// OnInput is called after an input is dequeued, before reducing.
	OnInput func(input Input)
	// OnTransition is called after every reduction.
	OnTransition func(prev S, next S, input Input)
	// OnPanic is called when the reducer or runtime panics. If nil the panic
	// propagates.
	OnPanic func(recovered any)
}

// Option configures an Actor.
type Option[S any] func(*Actor[S])

// WithHooks attaches hooks.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// WithMailboxSize sets the Send mailbox buffer size.
func WithMailboxSize[S any](n int) Option[S] {
	return func(a *Actor[S]) {
		if n > 0 {
			a.inbox = make(chan Input, n)
		}
	}
}

// Actor owns a state value of type S and serializes every change to it.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]

	mu    sync.Mutex
	state S

	inbox chan Input

	// Runtime follow-ups, drained in FIFO order by the loop.
	pendingMu sync.Mutex
	pending   []Input
	wake      chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates an actor. Call Start to run it.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:  reducer,
		runtime: runtime,
		state:   initial,
		inbox:   make(chan Input, defaultMailboxSize),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the loop goroutine. Extra calls are ignored.
func (a *Actor[S]) Start() {
	a.startOnce.Do(func() { go a.loop() })
}

// Stop cancels the loop and the runtime. Inputs still queued are discarded.
// Stop is idempotent.
func (a *Actor[S]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		if a.runtime != nil {
			a.runtime.Stop()
		}
	})
}

// Done is closed when the loop goroutine exits.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Stopped reports whether Stop has been called.
func (a *Actor[S]) Stopped() bool {
	return a.ctx.Err() != nil
}

// Send queues an input without blocking.
func (a *Actor[S]) Send(input Input) error {
	if input == nil {
		return nil
	}
	if a.Stopped() {
		return ErrStopped
	}
	select {
	case a.inbox <- input:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Enqueue is Send without the error detail.
func (a *Actor[S]) Enqueue(input Input) bool {
	return a.Send(input) == nil
}

// State returns a copy of the current state.
func (a *Actor[S]) State() S {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Actor[S]) emit(in Input) {
	if in == nil || a.Stopped() {
		return
	}
	a.pendingMu.Lock()
	a.pending = append(a.pending, in)
	a.pendingMu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// takePending removes and returns every queued follow-up.
func (a *Actor[S]) takePending() []Input {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	batch := a.pending
	a.pending = nil
	return batch
}

func (a *Actor[S]) loop() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			if a.hooks.OnPanic == nil {
				panic(r)
			}
			a.hooks.OnPanic(r)
		}
	}()

	for {
		select {
		case <-a.ctx.Done():
			return
		case in := <-a.inbox:
			a.step(in)
		case <-a.wake:
			for _, in := range a.takePending() {
				if a.ctx.Err() != nil {
					return
				}
				a.step(in)
			}
		}
	}
}

func (a *Actor[S]) step(in Input) {
	if a.hooks.OnInput != nil {
		a.hooks.OnInput(in)
	}

	a.mu.Lock()
	prev := a.state
	a.mu.Unlock()

	next, effects := a.reduce(prev, in)

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	if a.hooks.OnTransition != nil {
		a.hooks.OnTransition(prev, next, in)
	}
	if a.runtime != nil && len(effects) > 0 {
		a.runtime.HandleEffects(a.ctx, effects, a.emit)
	}
}
