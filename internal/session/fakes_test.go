package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bhandras/termroom/internal/protocol/wire"
)

type emitted struct {
	event string
	args  []any
}

// fakeTransport records emits and routes delivered messages to the
// subscriber of a session.
type fakeTransport struct {
	mu       sync.Mutex
	emits    []emitted
	handlers map[string]func(wire.Inbound)
	unsubs   int
	fail     map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers: make(map[string]func(wire.Inbound)),
		fail:     make(map[string]error),
	}
}

func (f *fakeTransport) Emit(event string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[event]; err != nil {
		return err
	}
	f.emits = append(f.emits, emitted{event: event, args: args})
	return nil
}

func (f *fakeTransport) Subscribe(id string, h func(wire.Inbound)) func() {
	f.mu.Lock()
	f.handlers[id] = h
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.unsubs++
		f.mu.Unlock()
	}
}

func (f *fakeTransport) failOn(event string, err error) {
	f.mu.Lock()
	f.fail[event] = err
	f.mu.Unlock()
}

// deliver reports whether a subscriber received msg.
func (f *fakeTransport) deliver(id string, msg wire.Inbound) bool {
	f.mu.Lock()
	h := f.handlers[id]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(msg)
	return true
}

func (f *fakeTransport) subscribed(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[id] != nil
}

func (f *fakeTransport) emitsOf(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubs
}

// gatedPoller blocks every poll until resolve or fail is called. It ignores
// context cancellation so that tests can deliver a result after unmount.
type gatedPoller struct {
	mu      sync.Mutex
	ids     []string
	started chan struct{}
	result  chan pollResult
}

type pollResult struct {
	active bool
	err    error
}

func newGatedPoller() *gatedPoller {
	return &gatedPoller{
		started: make(chan struct{}, 8),
		result:  make(chan pollResult, 8),
	}
}

func (p *gatedPoller) Active(_ context.Context, id string) (bool, error) {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
	p.started <- struct{}{}
	r := <-p.result
	return r.active, r.err
}

func (p *gatedPoller) resolve(v bool) { p.result <- pollResult{active: v} }

func (p *gatedPoller) fail() { p.result <- pollResult{err: errors.New("poll failed")} }

func (p *gatedPoller) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}
