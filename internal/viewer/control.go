package viewer

import (
	"context"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/remote"
)

// Control starts and stops the remote process behind a session.
type Control interface {
	Start(ctx context.Context, sessionID string, target wire.Target) error
	Stop(ctx context.Context, sessionID string) error
}

// Emitter sends one Socket.IO event.
type Emitter interface {
	Emit(event string, args ...any) error
}

// SocketControl uses the dialect's start and stop events.
type SocketControl struct {
	Conn    Emitter
	Dialect wire.Dialect
}

// Start implements Control.
func (c SocketControl) Start(_ context.Context, sessionID string, target wire.Target) error {
	return c.Conn.Emit(c.Dialect.StartEvent, c.Dialect.StartArgs(sessionID, target)...)
}

// Stop implements Control.
func (c SocketControl) Stop(_ context.Context, sessionID string) error {
	return c.Conn.Emit(c.Dialect.StopEvent, sessionID)
}

// LegacyControl uses the id-less /runner/start and /runner/stop endpoints.
// The target is ignored; the server starts its configured runner.
type LegacyControl struct {
	Client *remote.Client
}

// Start implements Control.
func (c LegacyControl) Start(ctx context.Context, _ string, _ wire.Target) error {
	return c.Client.StartRunner(ctx)
}

// Stop implements Control.
func (c LegacyControl) Stop(ctx context.Context, _ string) error {
	return c.Client.StopRunner(ctx)
}
