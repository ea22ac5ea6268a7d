// Package devserver is a self-contained session server speaking the same
// Socket.IO and HTTP protocol as production deployments. It backs the
// devserver command and end-to-end tests. The "remote shell" it hosts is a
// toy: it echoes commands and answers a few built-ins.
package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/pkg/logger"
)

// Options configure a Server.
type Options struct {
	Dialect wire.Dialect
	// Path is the Socket.IO path. Defaults to /socket.io/.
	Path string
	// Token, when set, must be presented in the handshake auth payload.
	Token string
}

type room struct {
	history strings.Builder
	active  bool
	members map[string]*socket.Socket
}

// Server hosts any number of sessions, created on first use.
type Server struct {
	opts Options
	io   *socket.Server
	mux  chi.Router
	log  zerolog.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

// New builds a server. Serve it with Handler.
func New(opts Options) *Server {
	if opts.Dialect.JoinEvent == "" {
		opts.Dialect = wire.SessionDialect
	}
	if opts.Path == "" {
		opts.Path = "/socket.io/"
	}

	sopts := socket.DefaultServerOptions()
	sopts.SetCors(&sockettypes.Cors{Origin: "*", Credentials: false})
	sopts.SetPath(opts.Path)

	s := &Server{
		opts:  opts,
		io:    socket.NewServer(nil, sopts),
		log:   logger.WithComponent("devserver"),
		rooms: make(map[string]*room),
	}
	s.io.On("connection", func(clients ...any) {
		if len(clients) == 0 {
			return
		}
		if client, ok := clients[0].(*socket.Socket); ok {
			s.handleConnection(client)
		}
	})
	s.mux = s.routes()
	return s
}

// Handler returns the HTTP handler serving Socket.IO and the REST endpoints.
func (s *Server) Handler() http.Handler { return s.mux }

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	ioHandler := s.io.ServeHandler(nil)
	r.Handle(s.opts.Path+"*", ioHandler)
	r.Handle(strings.TrimSuffix(s.opts.Path, "/"), ioHandler)

	prefix := s.opts.Dialect.ActivePathPrefix
	r.Get(prefix+"/{id}/active", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, s.Active(chi.URLParam(req, "id")))
	})
	r.Get("/runner/start", func(w http.ResponseWriter, _ *http.Request) {
		for _, id := range s.Sessions() {
			s.start(id, wire.Target{Hostname: "localhost", Username: "runner"})
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/runner/stop", func(w http.ResponseWriter, _ *http.Request) {
		for _, id := range s.Sessions() {
			s.stop(id)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debugf("devserver: write response: %v", err)
	}
}

func (s *Server) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())
	log := s.log.With().Str("socket", socketID).Logger()

	if s.opts.Token != "" {
		token, _ := client.Handshake().Auth["token"].(string)
		if token != s.opts.Token {
			log.Warn().Msg("rejecting socket with bad token")
			client.Emit(wire.EventError, map[string]any{"message": "invalid authentication token"})
			client.Disconnect(true)
			return
		}
	}
	log.Debug().Msg("socket connected")

	// Both naming families are accepted; replies use the configured one.
	join := func(args ...any) { s.onJoin(client, args) }
	client.On("join_session", join)
	client.On("join_terminal", join)

	leave := func(args ...any) { s.leave(stringArg(args, 0), socketID) }
	client.On("leave_session", leave)
	client.On("leave_terminal", leave)

	start := func(args ...any) { s.onStart(client, args) }
	client.On("start_session", start)
	client.On("start_runner", start)

	stop := func(args ...any) { s.stop(stringArg(args, 0)) }
	client.On("stop_session", stop)
	client.On("stop_runner", stop)

	client.On("new_input", func(args ...any) {
		s.input(client, args)
	})
	client.On("disconnect", func(args ...any) {
		s.dropSocket(socketID)
		log.Debug().Str("reason", stringArg(args, 0)).Msg("socket disconnected")
	})
}

func (s *Server) onJoin(client *socket.Socket, args []any) {
	d := s.opts.Dialect
	id := stringArg(args, 0)
	if id == "" {
		client.Emit(wire.EventError, "join without session id")
		return
	}
	// Membership and the history reply share one critical section, so no
	// chunk published in between can reach the client ahead of its history.
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.roomLocked(id)
	r.members[string(client.Id())] = client
	client.Emit(d.HistoryEvent, map[string]any{d.IDParam: id, "history": r.history.String()})
}

func (s *Server) onStart(client *socket.Socket, args []any) {
	id := stringArg(args, 0)
	target := wire.Target{Hostname: stringArg(args, 1), Username: stringArg(args, 2), Password: stringArg(args, 3)}
	if id == "" || target.Hostname == "" {
		client.Emit(wire.EventError, map[string]any{
			s.opts.Dialect.IDParam: id,
			"message":              "start needs a session id and a host",
		})
		return
	}
	s.start(id, target)
}

// Sessions returns the known session ids.
func (s *Server) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Active reports whether the session's shell is running.
func (s *Server) Active(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rooms[id]
	return r != nil && r.active
}

// Members returns how many sockets joined the session.
func (s *Server) Members(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.rooms[id]; r != nil {
		return len(r.members)
	}
	return 0
}

// history returns the raw output recorded for the session.
func (s *Server) history(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.rooms[id]; r != nil {
		return r.history.String()
	}
	return ""
}

// Publish appends raw output to the session and pushes it to its members.
func (s *Server) Publish(id, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(id, chunk)
}

// SetActive changes the active flag and pushes it to members.
func (s *Server) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setActiveLocked(id, active)
}

// Emits happen under s.mu so every member sees one order of events.
func (s *Server) publishLocked(id, chunk string) {
	r := s.roomLocked(id)
	r.history.WriteString(chunk)
	payload := map[string]any{s.opts.Dialect.IDParam: id, "output": chunk}
	for _, c := range r.members {
		c.Emit(wire.EventNewOutput, payload)
	}
}

func (s *Server) setActiveLocked(id string, active bool) {
	r := s.roomLocked(id)
	r.active = active
	payload := map[string]any{s.opts.Dialect.IDParam: id, "active": active}
	for _, c := range r.members {
		c.Emit(wire.EventIsActive, payload)
	}
}

func (s *Server) leave(id, socketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.rooms[id]; r != nil {
		delete(r.members, socketID)
	}
}

func (s *Server) dropSocket(socketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		delete(r.members, socketID)
	}
}

func (s *Server) start(id string, target wire.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.roomLocked(id).active
	// Repeated starts still push the state so the requester sees it.
	s.setActiveLocked(id, true)
	if wasActive {
		return
	}
	user := target.Username
	if user == "" {
		user = "user"
	}
	s.publishLocked(id, fmt.Sprintf("\x1b[32mConnected to %s@%s\x1b[0m\r\n", user, target.Hostname))
}

func (s *Server) stop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roomLocked(id).active {
		s.publishLocked(id, "\x1b[33mConnection closed\x1b[0m\r\n")
	}
	s.setActiveLocked(id, false)
}

func (s *Server) input(client *socket.Socket, args []any) {
	var id, command string
	if len(args) > 0 {
		switch v := args[0].(type) {
		case string:
			// Bare input goes to every session this socket joined.
			command = v
		case map[string]any:
			command, _ = v["command"].(string)
			for _, key := range []string{"session_id", "terminal_id"} {
				if raw, ok := v[key]; ok && raw != nil {
					id = fmt.Sprint(raw)
				}
			}
		}
	}

	ids := []string{id}
	if id == "" {
		ids = s.joinedBy(string(client.Id()))
	}
	for _, id := range ids {
		if !s.Active(id) {
			client.Emit(wire.EventError, map[string]any{
				s.opts.Dialect.IDParam: id,
				"message":              fmt.Sprintf("session %s is not running", id),
			})
			continue
		}
		s.Publish(id, "$ "+command+"\r\n"+respond(command))
	}
}

func (s *Server) joinedBy(socketID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, r := range s.rooms {
		if _, ok := r.members[socketID]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Server) roomLocked(id string) *room {
	r := s.rooms[id]
	if r == nil {
		r = &room{members: make(map[string]*socket.Socket)}
		s.rooms[id] = r
	}
	return r
}

// respond is the toy shell.
func respond(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "echo":
		return strings.Join(fields[1:], " ") + "\r\n"
	case "pwd":
		return "/home/user\r\n"
	case "ls":
		return "\x1b[34mbin\x1b[0m  notes.txt\r\n"
	default:
		return fmt.Sprintf("\x1b[31m%s: command not found\x1b[0m\r\n", fields[0])
	}
}

func stringArg(args []any, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	if s, ok := args[i].(string); ok {
		return s
	}
	return fmt.Sprint(args[i])
}
