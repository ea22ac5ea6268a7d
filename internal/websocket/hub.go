package websocket

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/pkg/logger"
)

// Conn is the part of Client the Hub depends on.
type Conn interface {
	On(event string, h Handler)
	Emit(event string, args ...any) error
}

// Hub routes the inbound session events of one connection to per-session
// subscribers. Messages that carry no session id are delivered to every
// subscriber, since the server then relies on room membership.
type Hub struct {
	conn    Conn
	dialect wire.Dialect
	log     zerolog.Logger

	mu   sync.RWMutex
	subs map[string]map[uint64]func(wire.Inbound)
	next uint64
}

// NewHub registers the dialect's inbound events on conn. Call it before
// conn connects so no event is missed.
func NewHub(conn Conn, dialect wire.Dialect) *Hub {
	h := &Hub{
		conn:    conn,
		dialect: dialect,
		log:     logger.WithComponent("hub"),
		subs:    make(map[string]map[uint64]func(wire.Inbound)),
	}

	conn.On(wire.EventNewOutput, func(args ...any) {
		h.route(wire.ParseOutput(wire.KindIncremental, dialect.IDParam, args))
	})
	conn.On(dialect.HistoryEvent, func(args ...any) {
		h.route(wire.ParseOutput(wire.KindHistory, dialect.IDParam, args))
	})
	conn.On(wire.EventIsActive, func(args ...any) {
		h.route(wire.ParseActive(dialect.IDParam, args))
	})
	conn.On(wire.EventError, func(args ...any) {
		h.route(wire.ParseError(dialect.IDParam, args), nil)
	})
	return h
}

// Dialect returns the dialect the hub was built for.
func (h *Hub) Dialect() wire.Dialect { return h.dialect }

// Emit forwards to the connection.
func (h *Hub) Emit(event string, args ...any) error {
	return h.conn.Emit(event, args...)
}

// Subscribe registers handler for sessionID. The returned function removes
// exactly this registration and may be called more than once.
func (h *Hub) Subscribe(sessionID string, handler func(wire.Inbound)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	set := h.subs[sessionID]
	if set == nil {
		set = make(map[uint64]func(wire.Inbound))
		h.subs[sessionID] = set
	}
	set[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set := h.subs[sessionID]; set != nil {
				delete(set, id)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
}

// Sessions returns the ids that currently have subscribers.
func (h *Hub) Sessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.subs))
	for id := range h.subs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) route(msg wire.Inbound, err error) {
	if err != nil {
		h.log.Warn().Err(err).Msg("dropping malformed event")
		return
	}

	h.mu.RLock()
	var targets []func(wire.Inbound)
	if msg.SessionID == "" {
		for _, set := range h.subs {
			for _, fn := range set {
				targets = append(targets, fn)
			}
		}
	} else {
		for _, fn := range h.subs[msg.SessionID] {
			targets = append(targets, fn)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.log.Debug().Str("kind", msg.Kind.String()).Str("session", msg.SessionID).Msg("no subscriber")
		return
	}
	for _, fn := range targets {
		fn(msg)
	}
}
