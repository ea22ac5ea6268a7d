package session

// ActiveState is the observed running state of the remote process.
type ActiveState int8

const (
	// ActiveUnknown means neither the poll nor a push has been applied.
	ActiveUnknown ActiveState = iota
	// ActiveFalse means the process is not running.
	ActiveFalse
	// ActiveTrue means the process is running.
	ActiveTrue
)

// ActiveFrom converts a resolved flag.
func ActiveFrom(v bool) ActiveState {
	if v {
		return ActiveTrue
	}
	return ActiveFalse
}

// Known reports whether a value has been applied.
func (a ActiveState) Known() bool { return a != ActiveUnknown }

// Bool returns the display value. Unknown counts as not active.
func (a ActiveState) Bool() bool { return a == ActiveTrue }

// String implements fmt.Stringer.
func (a ActiveState) String() string {
	switch a {
	case ActiveTrue:
		return "active"
	case ActiveFalse:
		return "inactive"
	default:
		return "unknown"
	}
}

// Source names the input that last wrote the active state.
type Source int8

const (
	SourceNone Source = iota
	SourcePoll
	SourcePush
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourcePoll:
		return "poll"
	case SourcePush:
		return "push"
	default:
		return "none"
	}
}

// Reconciler merges the one-shot poll result and the push stream into a
// single state. The last applied value wins, whichever input it came from;
// a poll that resolves after a fresher push still overwrites it.
type Reconciler struct {
	state  ActiveState
	source Source
}

// ApplyPoll applies a resolved poll result.
func (r *Reconciler) ApplyPoll(v bool) {
	r.state, r.source = ActiveFrom(v), SourcePoll
}

// ApplyPush applies a pushed active flag.
func (r *Reconciler) ApplyPush(v bool) {
	r.state, r.source = ActiveFrom(v), SourcePush
}

// State returns the current state.
func (r Reconciler) State() ActiveState { return r.state }

// Source returns the input that wrote the current state.
func (r Reconciler) Source() Source { return r.source }
