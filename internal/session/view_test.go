package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Parallel()

	s := NewState("abc", Buffer{})
	v := Project(s)
	require.Equal(t, View{
		SessionID:   "abc",
		ActiveLabel: "inactive",
		Phase:       PhaseUnjoined,
	}, v)

	s.Phase = PhaseJoined
	s.Buffer.Append("\x1b[1mhi")
	s.Active.ApplyPush(true)
	s.Input = "ls"
	s.Error = "boom"
	v = Project(s)
	require.Equal(t, `<span style="font-weight:bold;">hi</span>`, v.Markup)
	require.True(t, v.Active)
	require.True(t, v.ActiveKnown)
	require.Equal(t, "active", v.ActiveLabel)
	require.Equal(t, "ls", v.Input)
	require.Equal(t, "boom", v.Error)
	require.Equal(t, "joined", v.Phase.String())

	s.Active.ApplyPoll(false)
	v = Project(s)
	require.False(t, v.Active)
	require.True(t, v.ActiveKnown)
}
