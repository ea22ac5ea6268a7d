package session

// View is the renderable projection of a session.
type View struct {
	SessionID string
	// Markup is the sanitized output, safe to inject into a page.
	Markup string
	// Active drives the indicator. Unknown is shown as not active.
	Active      bool
	ActiveKnown bool
	ActiveLabel string
	// Input is the pending command text bound to the input box.
	Input string
	Phase Phase
	// Error is the transport error to show in the banner, if any.
	Error string
	Rev   uint64
}

// Change announces a visible transition. It carries the fields that are
// cheap to copy; the markup is left to View, which listeners call when they
// actually render.
type Change struct {
	SessionID string
	Rev       uint64
	Phase     Phase
	Active    ActiveState
	Input     string
	Error     string
	// Fragments is the number of stored output fragments.
	Fragments int
}

func changeOf(s State) Change {
	return Change{
		SessionID: s.ID,
		Rev:       s.Rev,
		Phase:     s.Phase,
		Active:    s.Active.State(),
		Input:     s.Input,
		Error:     s.Error,
		Fragments: s.Buffer.Len(),
	}
}

// activeLabel is the indicator text. Unknown is shown as inactive.
func activeLabel(a ActiveState) string {
	if a.Bool() {
		return "active"
	}
	return "inactive"
}

// Project derives the view from a controller state.
func Project(s State) View {
	label := activeLabel(s.Active.State())
	return View{
		SessionID:   s.ID,
		Markup:      s.Buffer.Content(),
		Active:      s.Active.State().Bool(),
		ActiveKnown: s.Active.State().Known(),
		ActiveLabel: label,
		Input:       s.Input,
		Phase:       s.Phase,
		Error:       s.Error,
		Rev:         s.Rev,
	}
}
