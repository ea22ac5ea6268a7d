// Package websocket connects to the session server's Socket.IO endpoint and
// multiplexes the session-scoped event streams of many views over one
// connection.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/bhandras/termroom/pkg/logger"
)

// DefaultPath is the Socket.IO endpoint path used by the session server.
const DefaultPath = "/socket.io/"

// ErrNotConnected is returned when emitting before Connect.
var ErrNotConnected = errors.New("socket not connected")

// Handler receives the raw arguments of one event.
type Handler func(args ...any)

// Options configure a Client.
type Options struct {
	// URL is the server origin.
	URL string
	// Path is the Socket.IO path. Defaults to DefaultPath.
	Path string
	// Token is sent in the handshake auth payload when set.
	Token string
	// WebSocketOnly skips the long-polling transport.
	WebSocketOnly bool
}

// Client is one Socket.IO connection. Handlers registered with On survive
// reconnects performed by the underlying library.
type Client struct {
	opts Options
	log  zerolog.Logger

	mu        sync.RWMutex
	socket    *socket.Socket
	connected bool
	handlers  map[string][]Handler
	bound     map[string]bool
	closed    bool
}

// NewClient returns an unconnected client.
func NewClient(opts Options) *Client {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	return &Client{
		opts:     opts,
		log:      logger.WithComponent("socket"),
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for event. Handlers run on the library's event
// goroutine in arrival order and must not block.
func (c *Client) On(event string, h Handler) {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], h)
	sock := c.socket
	c.mu.Unlock()

	if sock != nil {
		c.attach(sock, event)
	}
}

// Connect starts the connection. It returns once the handshake has been
// initiated; use WaitForConnect to block until the server accepted it.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("socket client closed")
	}
	if c.socket != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	opts := socket.DefaultOptions()
	opts.SetPath(c.opts.Path)
	if c.opts.WebSocketOnly {
		opts.SetTransports(types.NewSet(socket.WebSocket))
	} else {
		opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))
	}
	if c.opts.Token != "" {
		opts.SetAuth(map[string]any{"token": c.opts.Token})
	}

	c.log.Debug().Str("url", c.opts.URL).Str("path", c.opts.Path).Msg("connecting")
	sock, err := socket.Connect(c.opts.URL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	sock.On(types.EventName("connect"), func(args ...any) {
		c.setConnected(true)
		c.log.Debug().Str("id", string(sock.Id())).Msg("connected")
	})
	sock.On(types.EventName("disconnect"), func(args ...any) {
		c.setConnected(false)
		c.log.Debug().Str("reason", firstString(args)).Msg("disconnected")
	})
	sock.On(types.EventName("connect_error"), func(args ...any) {
		c.log.Warn().Str("error", firstString(args)).Msg("connection error")
	})

	c.mu.Lock()
	c.socket = sock
	events := make([]string, 0, len(c.handlers))
	for ev := range c.handlers {
		events = append(events, ev)
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.attach(sock, ev)
	}
	return nil
}

// attach binds one dispatcher per event name. Dispatchers read the handler
// list on every call, so handlers added later are picked up.
func (c *Client) attach(sock *socket.Socket, event string) {
	c.mu.Lock()
	if c.bound == nil {
		c.bound = make(map[string]bool)
	}
	if c.bound[event] {
		c.mu.Unlock()
		return
	}
	c.bound[event] = true
	c.mu.Unlock()

	sock.On(types.EventName(event), func(args ...any) {
		c.dispatch(event, args)
	})
}

func (c *Client) dispatch(event string, args []any) {
	c.mu.RLock()
	hs := append([]Handler(nil), c.handlers[event]...)
	c.mu.RUnlock()

	if logger.Enabled(logger.LevelTrace) {
		c.log.Trace().Str("event", event).Int("args", len(args)).Msg("received")
	}
	for _, h := range hs {
		h(args...)
	}
}

// WaitForConnect blocks until the server accepted the connection.
func (c *Client) WaitForConnect(ctx context.Context) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.IsConnected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for connection: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Emit sends an event. The library buffers emits while reconnecting.
func (c *Client) Emit(event string, args ...any) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return ErrNotConnected
	}
	if logger.Enabled(logger.LevelTrace) {
		c.log.Trace().Str("event", event).Msg("sending")
	}
	sock.Emit(event, args...)
	return nil
}

// IsConnected reports whether the connection is established.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	sock := c.socket
	connected := c.connected
	c.mu.RUnlock()

	if connected {
		return true
	}
	return sock != nil && sock.Connected()
}

// Close disconnects. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.socket != nil {
		c.socket.Disconnect()
		c.socket = nil
	}
	c.connected = false
	c.bound = nil
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func firstString(args []any) string {
	if len(args) == 0 {
		return ""
	}
	if s, ok := args[0].(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(args[0]))
}
