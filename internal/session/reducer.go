package session

import (
	"strings"

	"github.com/bhandras/termroom/internal/actor"
	"github.com/bhandras/termroom/internal/protocol/wire"
)

// Reduce is the controller's transition function. It performs no I/O; reply
// channels are buffered and completed without blocking.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch in := input.(type) {
	case cmdMount:
		return reduceMount(state, in)
	case cmdUnmount:
		return reduceUnmount(state, in)
	case cmdSubmit:
		return reduceSubmit(state, in)
	case cmdSetInput:
		if state.Phase == PhaseLeft || state.Input == in.Text {
			return state, nil
		}
		state.Input = in.Text
		state.Rev++
		return state, nil
	case cmdClear:
		if state.Phase == PhaseLeft || state.Buffer.Len() == 0 {
			return state, nil
		}
		state.Buffer.Clear()
		state.Rev++
		return state, nil
	case cmdDismissError:
		if state.Error == "" {
			return state, nil
		}
		state.Error = ""
		state.Rev++
		return state, nil
	case evInbound:
		return reduceInbound(state, in.Msg)
	case evPollResolved:
		// Results that arrive after unmount are stale.
		if state.Phase != PhaseJoined {
			return state, nil
		}
		state.Active.ApplyPoll(in.Active)
		state.Rev++
		return state, nil
	case evPollFailed:
		// The prior value stands. The runtime already logged the failure.
		return state, nil
	case evInputSent:
		reply(in.Reply, nil)
		if state.Phase == PhaseLeft || state.Input == "" {
			return state, nil
		}
		state.Input = ""
		state.Rev++
		return state, nil
	case evInputFailed:
		reply(in.Reply, in.Err)
		return state, nil
	default:
		return state, nil
	}
}

func reduceMount(state State, cmd cmdMount) (State, []actor.Effect) {
	switch state.Phase {
	case PhaseJoined:
		reply(cmd.Reply, ErrAlreadyMounted)
		return state, nil
	case PhaseLeft:
		reply(cmd.Reply, ErrLeft)
		return state, nil
	}

	state.Phase = PhaseJoined
	state.Rev++
	// Subscribe before joining so the history sent in response to the join
	// cannot slip past.
	return state, []actor.Effect{
		effSubscribe{ID: state.ID},
		effEmitJoin{ID: state.ID, Reply: cmd.Reply},
		effPoll{ID: state.ID},
	}
}

func reduceUnmount(state State, cmd cmdUnmount) (State, []actor.Effect) {
	switch state.Phase {
	case PhaseLeft:
		closeDone(cmd.Done)
		return state, nil
	case PhaseUnjoined:
		state.Phase = PhaseLeft
		state.Rev++
		closeDone(cmd.Done)
		return state, nil
	}

	state.Phase = PhaseLeft
	state.Rev++
	return state, []actor.Effect{
		effUnsubscribe{},
		effEmitLeave{ID: state.ID, Done: cmd.Done},
	}
}

func reduceSubmit(state State, cmd cmdSubmit) (State, []actor.Effect) {
	switch state.Phase {
	case PhaseUnjoined:
		reply(cmd.Reply, ErrNotJoined)
		return state, nil
	case PhaseLeft:
		reply(cmd.Reply, ErrLeft)
		return state, nil
	}
	if strings.TrimSpace(cmd.Text) == "" {
		reply(cmd.Reply, ErrEmptyCommand)
		return state, nil
	}
	rec := wire.CommandRecord{SessionID: state.ID, CommandText: cmd.Text}
	return state, []actor.Effect{effEmitInput{Record: rec, Reply: cmd.Reply}}
}

func reduceInbound(state State, msg wire.Inbound) (State, []actor.Effect) {
	if state.Phase != PhaseJoined {
		return state, nil
	}
	if msg.SessionID != "" && msg.SessionID != state.ID {
		return state, nil
	}

	switch msg.Kind {
	case wire.KindIncremental:
		state.Buffer.Append(msg.Text)
	case wire.KindHistory:
		state.Buffer.Replace(msg.Text)
	case wire.KindActive:
		state.Active.ApplyPush(msg.Active)
	case wire.KindError:
		state.Error = msg.Text
	default:
		return state, nil
	}
	state.Rev++
	return state, nil
}

func reply(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func closeDone(ch chan struct{}) {
	if ch != nil {
		close(ch)
	}
}
