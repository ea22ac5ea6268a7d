// Package viewer serves the browser page that shows one live session and
// relays the user's commands. Each browser connection mounts its own
// session controller for as long as the connection lives.
package viewer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/session"
	"github.com/bhandras/termroom/internal/termhtml"
	"github.com/bhandras/termroom/pkg/logger"
)

const (
	// maxClientMessage caps one browser message.
	maxClientMessage = 64 << 10
	// writeTimeout bounds one push to the browser.
	writeTimeout = 5 * time.Second
	// controlTimeout bounds one start or stop request.
	controlTimeout = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	Transport   session.Transport
	Poller      session.Poller
	Control     Control
	Dialect     wire.Dialect
	BareInput   bool
	Decoder     termhtml.Decoder
	PollTimeout time.Duration
}

// Server is the viewer's HTTP handler.
type Server struct {
	opts   Options
	router chi.Router
	log    zerolog.Logger
}

// New builds the viewer.
func New(opts Options) *Server {
	if opts.Dialect.JoinEvent == "" {
		opts.Dialect = wire.SessionDialect
	}
	s := &Server{opts: opts, log: logger.WithComponent("viewer")}

	r := chi.NewRouter()
	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) sessionID(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get(s.opts.Dialect.IDParam))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := pageTemplate.Execute(w, pageData{
		SessionID: id,
		IDParam:   s.opts.Dialect.IDParam,
		Dialect:   s.opts.Dialect.Name,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("render page")
	}
}

// clientMessage is sent by the page.
type clientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Host     string `json:"host,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// viewMessage is pushed to the page.
type viewMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	Markup      string `json:"markup"`
	Active      bool   `json:"active"`
	ActiveKnown bool   `json:"active_known"`
	ActiveLabel string `json:"active_label"`
	Input       string `json:"input"`
	Phase       string `json:"phase"`
	Error       string `json:"error,omitempty"`
	Notice      string `json:"notice,omitempty"`
}

func toMessage(v session.View) viewMessage {
	return viewMessage{
		Type:        "view",
		SessionID:   v.SessionID,
		Markup:      v.Markup,
		Active:      v.Active,
		ActiveKnown: v.ActiveKnown,
		ActiveLabel: v.ActiveLabel,
		Input:       v.Input,
		Phase:       v.Phase.String(),
		Error:       v.Error,
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if id == "" {
		http.Error(w, "missing "+s.opts.Dialect.IDParam, http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("accept websocket")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxClientMessage)

	log := s.log.With().Str("conn", uuid.NewString()).Str("session", id).Logger()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ctrl, err := session.NewController(session.Config{
		ID:          id,
		Dialect:     s.opts.Dialect,
		BareInput:   s.opts.BareInput,
		Decoder:     s.opts.Decoder,
		Transport:   s.opts.Transport,
		Poller:      s.opts.Poller,
		PollTimeout: s.opts.PollTimeout,
	})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "controller")
		return
	}
	// Leave on every exit path.
	defer ctrl.Unmount()

	changed := make(chan struct{}, 1)
	stopWatch := ctrl.OnChange(func(session.Change) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stopWatch()

	notices := make(chan string, 4)
	if err := ctrl.Mount(ctx); err != nil {
		log.Warn().Err(err).Msg("mount failed")
		notices <- "join failed: " + err.Error()
	} else {
		log.Info().Msg("viewer attached")
	}

	go s.pushLoop(ctx, cancel, conn, ctrl, changed, notices)

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Msg("read")
			}
			break
		}
		if notice := s.handleMessage(ctx, ctrl, id, msg); notice != "" {
			select {
			case notices <- notice:
			default:
			}
		}
	}
	log.Info().Msg("viewer detached")
	conn.Close(websocket.StatusNormalClosure, "")
}

// pushLoop sends the current view after every change, coalescing bursts.
func (s *Server) pushLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn,
	ctrl *session.Controller, changed <-chan struct{}, notices <-chan string) {
	defer cancel()

	if err := s.write(ctx, conn, toMessage(ctrl.View())); err != nil {
		return
	}
	for {
		var notice string
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Done():
			return
		case <-changed:
		case notice = <-notices:
		}
		msg := toMessage(ctrl.View())
		msg.Notice = notice
		if err := s.write(ctx, conn, msg); err != nil {
			return
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, msg viewMessage) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}

// handleMessage applies one page message. It returns a notice for the page
// when the action failed.
func (s *Server) handleMessage(ctx context.Context, ctrl *session.Controller, id string, msg clientMessage) string {
	var err error
	switch msg.Type {
	case "input":
		err = ctrl.SetInput(msg.Text)
	case "submit":
		err = ctrl.Submit(ctx, msg.Text)
	case "clear":
		err = ctrl.Clear()
	case "dismiss":
		err = ctrl.DismissError()
	case "start", "stop":
		if s.opts.Control == nil {
			return "session control is not available"
		}
		cctx, cancel := context.WithTimeout(ctx, controlTimeout)
		defer cancel()
		if msg.Type == "start" {
			err = s.opts.Control.Start(cctx, id, wire.Target{Hostname: msg.Host, Username: msg.User, Password: msg.Password})
		} else {
			err = s.opts.Control.Stop(cctx, id)
		}
	default:
		return "unknown action " + msg.Type
	}
	if err != nil {
		if errors.Is(err, session.ErrEmptyCommand) {
			return ""
		}
		return msg.Type + " failed: " + err.Error()
	}
	return ""
}
