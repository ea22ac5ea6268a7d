// Package actortest provides test helpers for code built on package actor.
package actortest

import (
	"context"
	"sync"

	"github.com/bhandras/termroom/internal/actor"
)

// FakeRuntime records effects instead of executing them.
//
// React, when set, is called for every effect and may emit follow-up inputs
// synchronously, standing in for a network round trip.
type FakeRuntime struct {
	mu      sync.Mutex
	effects []actor.Effect
	stopped int

	React func(ctx context.Context, eff actor.Effect, emit func(actor.Input))
}

// HandleEffects implements actor.Runtime.
func (r *FakeRuntime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	r.mu.Lock()
	r.effects = append(r.effects, effects...)
	react := r.React
	r.mu.Unlock()

	if react == nil {
		return
	}
	for _, eff := range effects {
		react(ctx, eff, emit)
	}
}

// Stop implements actor.Runtime.
func (r *FakeRuntime) Stop() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
}

// StopCount reports how many times Stop was called.
func (r *FakeRuntime) StopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Effects returns a snapshot of recorded effects.
func (r *FakeRuntime) Effects() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]actor.Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Reset clears recorded effects.
func (r *FakeRuntime) Reset() {
	r.mu.Lock()
	r.effects = nil
	r.mu.Unlock()
}

// EffectsOf returns the recorded effects of concrete type E, in order.
func EffectsOf[E actor.Effect](r *FakeRuntime) []E {
	var out []E
	for _, eff := range r.Effects() {
		if e, ok := eff.(E); ok {
			out = append(out, e)
		}
	}
	return out
}
