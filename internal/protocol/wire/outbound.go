package wire

// CommandRecord is a command submitted by the user for one session. It is
// built at submission time and handed to the transport; nothing retains it.
type CommandRecord struct {
	SessionID   string
	CommandText string
}

// InputPayload encodes a command record for the new_input event.
//
// Bare deployments expect the command string alone and route it by
// connection; the others expect {command, <id param>}.
func (d Dialect) InputPayload(rec CommandRecord, bare bool) any {
	if bare {
		return rec.CommandText
	}
	return map[string]any{
		"command": rec.CommandText,
		d.IDParam: rec.SessionID,
	}
}

// Target describes the remote host a session should log in to.
type Target struct {
	Hostname string
	Username string
	Password string
}

// StartArgs returns the positional arguments of the start event.
func (d Dialect) StartArgs(sessionID string, target Target) []any {
	return []any{sessionID, target.Hostname, target.Username, target.Password}
}
