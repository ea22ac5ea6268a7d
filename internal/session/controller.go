// Package session implements the synchronization state machine of one
// observed remote session: membership signaling, output buffering, active
// state reconciliation and command submission.
//
// A Controller is created per mounted view. Its state is owned by an actor
// loop (see internal/actor); Reduce is the pure transition function and
// Runtime performs the transport and HTTP side effects.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhandras/termroom/internal/actor"
	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/termhtml"
	"github.com/bhandras/termroom/pkg/logger"
)

// unmountGrace bounds how long Unmount waits for the leave emit.
const unmountGrace = 2 * time.Second

// Config describes one controller.
type Config struct {
	ID        string
	Dialect   wire.Dialect
	BareInput bool
	Decoder   termhtml.Decoder
	Transport Transport
	Poller    Poller
	// PollTimeout bounds the active poll. Zero means DefaultPollTimeout.
	PollTimeout time.Duration
}

// Controller drives one session view.
type Controller struct {
	id  string
	act *actor.Actor[State]
	log zerolog.Logger

	mu        sync.Mutex
	listeners map[uint64]func(Change)
	nextID    uint64

	unmountOnce sync.Once
}

// NewController validates cfg and starts the controller loop. The session is
// not joined until Mount.
func NewController(cfg Config) (*Controller, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, ErrMissingID
	}
	if cfg.Transport == nil {
		return nil, errors.New("session: missing transport")
	}
	if cfg.Dialect.JoinEvent == "" {
		cfg.Dialect = wire.SessionDialect
	}

	c := &Controller{
		id:        cfg.ID,
		log:       logger.WithSession(cfg.ID),
		listeners: make(map[uint64]func(Change)),
	}
	c.act = actor.New(
		NewState(cfg.ID, NewBuffer(cfg.Decoder)),
		Reduce,
		NewRuntime(cfg),
		actor.WithHooks(actor.Hooks[State]{
			OnInput: func(in actor.Input) {
				c.log.Trace().Str("input", inputName(in)).Msg("input")
			},
			OnTransition: c.onTransition,
			OnPanic: func(r any) {
				c.log.Error().Interface("panic", r).Msg("controller loop crashed")
			},
		}),
	)
	c.act.Start()
	return c, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Mount joins the session: it subscribes to the session's inbound stream,
// emits the join signal and issues one active poll. It returns once the join
// has been handed to the transport.
func (c *Controller) Mount(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.send(cmdMount{Reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

// Unmount leaves the session. It unsubscribes, emits the leave signal without
// waiting for an acknowledgment and stops the loop. It is safe to call more
// than once and from any goroutine.
func (c *Controller) Unmount() {
	c.unmountOnce.Do(func() {
		done := make(chan struct{})
		if err := c.act.Send(cmdUnmount{Done: done}); err == nil {
			select {
			case <-done:
			case <-c.act.Done():
			case <-time.After(unmountGrace):
				c.log.Warn().Msg("leave did not complete in time")
			}
		}
		c.act.Stop()
	})
}

// Submit sends text as one command. On success the pending input is
// cleared; the output buffer is not touched.
func (c *Controller) Submit(ctx context.Context, text string) error {
	reply := make(chan error, 1)
	if err := c.send(cmdSubmit{Text: text, Reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

// SetInput records the pending input text.
func (c *Controller) SetInput(text string) error {
	return c.send(cmdSetInput{Text: text})
}

// Clear empties the output buffer.
func (c *Controller) Clear() error {
	return c.send(cmdClear{})
}

// DismissError hides the current transport error.
func (c *Controller) DismissError() error {
	return c.send(cmdDismissError{})
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State { return c.act.State() }

// View returns the current projection.
func (c *Controller) View() View { return Project(c.act.State()) }

// Done is closed once the controller loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.act.Done() }

// OnChange registers fn to be told about every visible transition. fn runs
// on the controller loop and must not block or call back into the controller
// synchronously; call View from elsewhere to render. The returned function
// removes the registration.
func (c *Controller) OnChange(fn func(Change)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) onTransition(prev, next State, _ actor.Input) {
	if prev.Rev == next.Rev {
		return
	}

	c.mu.Lock()
	fns := make([]func(Change), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	ch := changeOf(next)
	for _, fn := range fns {
		fn(ch)
	}
}

func (c *Controller) send(in actor.Input) error {
	err := c.act.Send(in)
	if errors.Is(err, actor.ErrStopped) {
		return ErrLeft
	}
	return err
}

func (c *Controller) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-c.act.Done():
		// The reply may have raced the shutdown.
		select {
		case err := <-reply:
			return err
		default:
			return ErrLeft
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func inputName(in actor.Input) string {
	switch in.(type) {
	case evInbound:
		return "inbound"
	case evPollResolved, evPollFailed:
		return "poll"
	case evInputSent, evInputFailed:
		return "input-result"
	default:
		return "command"
	}
}
