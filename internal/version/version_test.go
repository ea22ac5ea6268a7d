package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSemver(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0.3.0", semver(""))
	require.Equal(t, "0.3.0-rc.1", semver("rc.1"))
	require.Equal(t, "0.3.0-beta", semver("be ta!"))
}

func TestRich(t *testing.T) {
	require.True(t, strings.HasPrefix(Rich(), Version()))

	old := Commit
	Commit = "abc123"
	t.Cleanup(func() { Commit = old })
	require.Contains(t, Rich(), "commit=abc123")
}
