package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags an inbound message.
type Kind int

const (
	// KindIncremental is an output chunk to append.
	KindIncremental Kind = iota + 1
	// KindHistory is a full output backlog that replaces local content.
	KindHistory
	// KindActive is a pushed change of the active flag.
	KindActive
	// KindError is a transport error to show to the user.
	KindError
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindIncremental:
		return "incremental"
	case KindHistory:
		return "history"
	case KindActive:
		return "active"
	case KindError:
		return "error"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Inbound is one message received for a session room.
//
// SessionID is empty when the server delivered the payload without an id; the
// server then relies on room membership and every member receives it.
type Inbound struct {
	Kind      Kind
	SessionID string
	Text      string
	Active    bool
}

// textKeys are the payload fields that may carry output text.
var textKeys = []string{"output", "history", "data", "text"}

// ParseOutput decodes the arguments of an output or history event.
func ParseOutput(kind Kind, idParam string, args []any) (Inbound, error) {
	in := Inbound{Kind: kind}
	if len(args) == 0 {
		return in, fmt.Errorf("%s event without payload", kind)
	}
	switch v := args[0].(type) {
	case string:
		in.Text = v
	case []byte:
		in.Text = string(v)
	case map[string]any:
		in.SessionID = idFrom(v, idParam)
		text, ok := firstString(v, textKeys...)
		if !ok {
			return in, fmt.Errorf("%s event without text field", kind)
		}
		in.Text = text
	case nil:
		return in, fmt.Errorf("%s event with null payload", kind)
	default:
		return in, fmt.Errorf("%s event with unsupported payload %T", kind, v)
	}
	return in, nil
}

// ParseActive decodes the arguments of an is_active event.
func ParseActive(idParam string, args []any) (Inbound, error) {
	in := Inbound{Kind: KindActive}
	if len(args) == 0 {
		return in, fmt.Errorf("active event without payload")
	}
	if m, ok := args[0].(map[string]any); ok {
		in.SessionID = idFrom(m, idParam)
		for _, key := range []string{"active", "is_active", "value"} {
			if raw, found := m[key]; found {
				v, err := ParseBool(raw)
				if err != nil {
					return in, err
				}
				in.Active = v
				return in, nil
			}
		}
		return in, fmt.Errorf("active event without active field")
	}
	v, err := ParseBool(args[0])
	if err != nil {
		return in, err
	}
	in.Active = v
	return in, nil
}

// ParseError decodes the arguments of an error event. It never fails: an
// unreadable payload still yields a generic message.
func ParseError(idParam string, args []any) Inbound {
	in := Inbound{Kind: KindError, Text: "unknown error"}
	if len(args) == 0 {
		return in
	}
	switch v := args[0].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			in.Text = v
		}
	case map[string]any:
		in.SessionID = idFrom(v, idParam)
		if msg, ok := firstString(v, "message", "error", "msg"); ok && msg != "" {
			in.Text = msg
		}
	case error:
		in.Text = v.Error()
	case nil:
	default:
		in.Text = fmt.Sprint(v)
	}
	return in
}

// ParseBool accepts the boolean encodings seen from servers and the poll
// endpoint: JSON booleans, numbers and the strings "true"/"false"/"1"/"0".
func ParseBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", v.String())
		}
		return f != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("invalid boolean of type %T", raw)
	}
}

func idFrom(m map[string]any, idParam string) string {
	id, _ := firstString(m, idParam, "id", "sid")
	if id != "" {
		return id
	}
	// Some servers send numeric ids.
	for _, key := range []string{idParam, "id"} {
		if f, ok := m[key].(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := m[key].(string); ok {
			return v, true
		}
	}
	return "", false
}
