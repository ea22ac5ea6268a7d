package main

import (
	"context"
	"fmt"

	"github.com/bhandras/termroom/internal/config"
	"github.com/bhandras/termroom/internal/remote"
	"github.com/bhandras/termroom/internal/session"
	"github.com/bhandras/termroom/internal/termhtml"
	"github.com/bhandras/termroom/internal/viewer"
	"github.com/bhandras/termroom/internal/websocket"
)

// link is one live connection to the session server.
type link struct {
	cfg    *config.Config
	socket *websocket.Client
	hub    *websocket.Hub
	remote *remote.Client
}

func connect(ctx context.Context, cfg *config.Config) (*link, error) {
	rc, err := remote.New(remote.Config{
		BaseURL: cfg.ServerURL,
		Dialect: cfg.Wire(),
		Token:   cfg.Token,
	})
	if err != nil {
		return nil, err
	}

	sock := websocket.NewClient(websocket.Options{
		URL:           cfg.ServerURL,
		Path:          cfg.SocketPath,
		Token:         cfg.Token,
		WebSocketOnly: cfg.WebSocketOnly,
	})
	// Handlers must exist before connecting so early history is not lost.
	hub := websocket.NewHub(sock, cfg.Wire())
	if err := sock.Connect(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.ServerURL, err)
	}

	wctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := sock.WaitForConnect(wctx); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.ServerURL, err)
	}
	return &link{cfg: cfg, socket: sock, hub: hub, remote: rc}, nil
}

func (l *link) Close() error {
	return l.socket.Close()
}

func (l *link) decoder() termhtml.Decoder {
	return termhtml.Decoder{ExpandEscapes: l.cfg.EscapedOutput}
}

func (l *link) controller(id string) (*session.Controller, error) {
	return session.NewController(session.Config{
		ID:          id,
		Dialect:     l.cfg.Wire(),
		BareInput:   l.cfg.BareInput,
		Decoder:     l.decoder(),
		Transport:   l.hub,
		Poller:      l.remote,
		PollTimeout: l.cfg.PollTimeout,
	})
}

func (l *link) control(legacy bool) viewer.Control {
	if legacy {
		return viewer.LegacyControl{Client: l.remote}
	}
	return viewer.SocketControl{Conn: l.hub, Dialect: l.cfg.Wire()}
}
