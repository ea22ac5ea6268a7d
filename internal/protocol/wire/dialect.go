package wire

import (
	"fmt"
	"net/url"
	"strings"
)

// Event names shared by every dialect.
const (
	// EventNewInput carries a command typed by the user into the session.
	EventNewInput = "new_input"
	// EventNewOutput carries one incremental chunk of raw terminal output.
	EventNewOutput = "new_output"
	// EventIsActive carries the pushed active flag of the remote process.
	EventIsActive = "is_active"
	// EventError carries a transport level error message for the user.
	EventError = "error"
)

// Dialect names one family of event names and endpoints spoken by a server
// deployment. Older deployments call sessions "terminals" or "runners".
type Dialect struct {
	// Name identifies the dialect in configuration.
	Name string
	// JoinEvent announces that this client observes a session room.
	JoinEvent string
	// LeaveEvent announces that this client stopped observing a session room.
	LeaveEvent string
	// StartEvent asks the server to spawn the remote process.
	StartEvent string
	// StopEvent asks the server to terminate the remote process.
	StopEvent string
	// HistoryEvent carries the authoritative full output backlog.
	HistoryEvent string
	// ActivePathPrefix is the collection path of the active-state poll
	// endpoint: GET {prefix}/{id}/active.
	ActivePathPrefix string
	// IDParam is the query parameter and payload key carrying the session id.
	IDParam string
}

var (
	// SessionDialect is spoken by deployments that manage SSH sessions.
	SessionDialect = Dialect{
		Name:             "session",
		JoinEvent:        "join_session",
		LeaveEvent:       "leave_session",
		StartEvent:       "start_session",
		StopEvent:        "stop_session",
		HistoryEvent:     "session_history",
		ActivePathPrefix: "/session",
		IDParam:          "session_id",
	}

	// TerminalDialect is spoken by runner based deployments.
	TerminalDialect = Dialect{
		Name:             "terminal",
		JoinEvent:        "join_terminal",
		LeaveEvent:       "leave_terminal",
		StartEvent:       "start_runner",
		StopEvent:        "stop_runner",
		HistoryEvent:     "terminal_history",
		ActivePathPrefix: "/runner",
		IDParam:          "terminal_id",
	}
)

// DialectByName resolves a dialect from its configuration name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SessionDialect.Name:
		return SessionDialect, nil
	case TerminalDialect.Name:
		return TerminalDialect, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q (expected session or terminal)", name)
	}
}

// ActivePath returns the poll path for the given session id.
func (d Dialect) ActivePath(sessionID string) string {
	return fmt.Sprintf("%s/%s/active", d.ActivePathPrefix, url.PathEscape(sessionID))
}

// ViewerQuery returns the query string that names a session for a viewer page.
func (d Dialect) ViewerQuery(sessionID string) string {
	return url.Values{d.IDParam: []string{sessionID}}.Encode()
}
