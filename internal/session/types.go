package session

import (
	"github.com/bhandras/termroom/internal/actor"
	"github.com/bhandras/termroom/internal/protocol/wire"
)

// Phase is the membership phase of a controller.
type Phase int8

const (
	// PhaseUnjoined is the state before Mount.
	PhaseUnjoined Phase = iota
	// PhaseJoined is the state between Mount and Unmount.
	PhaseJoined
	// PhaseLeft is terminal.
	PhaseLeft
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseJoined:
		return "joined"
	case PhaseLeft:
		return "left"
	default:
		return "unjoined"
	}
}

// State is owned by the controller's actor loop.
type State struct {
	ID     string
	Phase  Phase
	Buffer Buffer
	Active Reconciler
	// Input is the typed but not yet submitted command text.
	Input string
	// Error is the last transport error message, shown until dismissed.
	Error string
	// Rev increases on every change that is visible in the projection.
	Rev uint64
}

// NewState returns the initial state for a session.
func NewState(id string, buf Buffer) State {
	return State{ID: id, Buffer: buf}
}

// Commands, sent by the public API.

type cmdMount struct {
	actor.InputBase
	Reply chan error
}

type cmdUnmount struct {
	actor.InputBase
	Done chan struct{}
}

type cmdSubmit struct {
	actor.InputBase
	Text  string
	Reply chan error
}

type cmdSetInput struct {
	actor.InputBase
	Text string
}

type cmdClear struct {
	actor.InputBase
}

type cmdDismissError struct {
	actor.InputBase
}

// Events, emitted by the runtime.

type evInbound struct {
	actor.InputBase
	Msg wire.Inbound
}

type evPollResolved struct {
	actor.InputBase
	Active bool
}

type evPollFailed struct {
	actor.InputBase
	Err error
}

type evInputSent struct {
	actor.InputBase
	Reply chan error
}

type evInputFailed struct {
	actor.InputBase
	Err   error
	Reply chan error
}

// Effects, interpreted by Runtime.

type effSubscribe struct {
	actor.EffectBase
	ID string
}

type effUnsubscribe struct {
	actor.EffectBase
}

type effEmitJoin struct {
	actor.EffectBase
	ID    string
	Reply chan error
}

type effPoll struct {
	actor.EffectBase
	ID string
}

type effEmitLeave struct {
	actor.EffectBase
	ID   string
	Done chan struct{}
}

type effEmitInput struct {
	actor.EffectBase
	Record wire.CommandRecord
	Reply  chan error
}
