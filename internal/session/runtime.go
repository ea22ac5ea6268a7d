package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhandras/termroom/internal/actor"
	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/pkg/logger"
)

// Transport is the shared connection to the session server.
type Transport interface {
	// Emit sends one event. It must not block on the network.
	Emit(event string, args ...any) error
	// Subscribe routes inbound messages for sessionID to handler until the
	// returned function is called.
	Subscribe(sessionID string, handler func(wire.Inbound)) (unsubscribe func())
}

// Poller resolves the active flag of a session once.
type Poller interface {
	Active(ctx context.Context, sessionID string) (bool, error)
}

// DefaultPollTimeout bounds one active-state poll.
const DefaultPollTimeout = 10 * time.Second

// Runtime interprets controller effects against a Transport and a Poller.
// It never touches State; results come back through emit.
type Runtime struct {
	transport   Transport
	poller      Poller
	dialect     wire.Dialect
	bareInput   bool
	pollTimeout time.Duration
	log         zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// NewRuntime returns a runtime for one session.
func NewRuntime(cfg Config) *Runtime {
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Runtime{
		transport:   cfg.Transport,
		poller:      cfg.Poller,
		dialect:     cfg.Dialect,
		bareInput:   cfg.BareInput,
		pollTimeout: timeout,
		log:         logger.WithSession(cfg.ID),
	}
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	for _, eff := range effects {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch e := eff.(type) {
		case effSubscribe:
			r.subscribe(e, emit)
		case effUnsubscribe:
			r.unsubscribeAll()
		case effEmitJoin:
			err := r.transport.Emit(r.dialect.JoinEvent, e.ID)
			if err != nil {
				r.log.Warn().Err(err).Str("event", r.dialect.JoinEvent).Msg("join failed")
			}
			reply(e.Reply, err)
		case effPoll:
			r.poll(ctx, e, emit)
		case effEmitLeave:
			// Best effort: nobody waits for an acknowledgment.
			if err := r.transport.Emit(r.dialect.LeaveEvent, e.ID); err != nil {
				r.log.Debug().Err(err).Str("event", r.dialect.LeaveEvent).Msg("leave not delivered")
			}
			closeDone(e.Done)
		case effEmitInput:
			payload := r.dialect.InputPayload(e.Record, r.bareInput)
			if err := r.transport.Emit(wire.EventNewInput, payload); err != nil {
				emit(evInputFailed{Err: err, Reply: e.Reply})
				continue
			}
			r.log.Debug().Int("bytes", len(e.Record.CommandText)).Msg("command sent")
			emit(evInputSent{Reply: e.Reply})
		}
	}
}

func (r *Runtime) subscribe(e effSubscribe, emit func(actor.Input)) {
	unsub := r.transport.Subscribe(e.ID, func(msg wire.Inbound) {
		emit(evInbound{Msg: msg})
	})

	r.mu.Lock()
	prev := r.unsubscribe
	r.unsubscribe = unsub
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (r *Runtime) unsubscribeAll() {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (r *Runtime) poll(ctx context.Context, e effPoll, emit func(actor.Input)) {
	if r.poller == nil {
		return
	}
	go func() {
		pctx, cancel := context.WithTimeout(ctx, r.pollTimeout)
		defer cancel()

		active, err := r.poller.Active(pctx, e.ID)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.log.Warn().Err(err).Msg("active poll failed")
			}
			emit(evPollFailed{Err: err})
			return
		}
		emit(evPollResolved{Active: active})
	}()
}

// Stop implements actor.Runtime. It drops the subscription if the session
// was never unmounted. In-flight polls see their context canceled; a result
// that still arrives is discarded by the stopped actor.
func (r *Runtime) Stop() {
	r.unsubscribeAll()
}
