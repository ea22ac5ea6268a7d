package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/pkg/logger"
)

// unsetEnv clears a variable for the duration of the test. envconfig also
// reads the unprefixed name, so both are cleared.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		for _, name := range []string{Prefix + "_" + k, k} {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "SERVER_URL", "SOCKET_PATH", "DIALECT", "BARE_INPUT", "ESCAPED_OUTPUT",
		"WEBSOCKET_ONLY", "TOKEN", "LISTEN_ADDR", "POLL_TIMEOUT", "CONNECT_TIMEOUT", "LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.ServerURL)
	require.Equal(t, "/socket.io/", cfg.SocketPath)
	require.Equal(t, wire.SessionDialect, cfg.Wire())
	require.Equal(t, 10*time.Second, cfg.PollTimeout)
	require.Equal(t, logger.LevelInfo, cfg.Level())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	unsetEnv(t, "SOCKET_PATH", "LOG_LEVEL", "CONNECT_TIMEOUT", "TOKEN")
	t.Setenv("TERMROOM_SERVER_URL", "https://shells.example.com")
	t.Setenv("TERMROOM_DIALECT", "terminal")
	t.Setenv("TERMROOM_BARE_INPUT", "true")
	t.Setenv("TERMROOM_POLL_TIMEOUT", "3s")
	t.Setenv("TERMROOM_DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, wire.TerminalDialect, cfg.Wire())
	require.True(t, cfg.BareInput)
	require.Equal(t, 3*time.Second, cfg.PollTimeout)
	require.Equal(t, logger.LevelDebug, cfg.Level())
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TERMROOM_POLL_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			ServerURL:      "http://localhost:5000",
			SocketPath:     "/socket.io/",
			Dialect:        "session",
			PollTimeout:    time.Second,
			ConnectTimeout: time.Second,
			LogLevel:       "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "dialect", mutate: func(c *Config) { c.Dialect = "runner" }},
		{name: "scheme", mutate: func(c *Config) { c.ServerURL = "ws://host" }},
		{name: "no host", mutate: func(c *Config) { c.ServerURL = "http://" }},
		{name: "socket path", mutate: func(c *Config) { c.SocketPath = "socket.io" }},
		{name: "timeout", mutate: func(c *Config) { c.PollTimeout = 0 }},
		{name: "token", mutate: func(c *Config) { c.Token = "a b" }},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, valid().Validate())
}
