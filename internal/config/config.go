// Package config loads termroom settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/pkg/logger"
)

// Prefix is prepended to every variable name, e.g. TERMROOM_SERVER_URL.
const Prefix = "TERMROOM"

// Config holds every setting. Command-line flags override loaded values.
type Config struct {
	// ServerURL is the origin of the session server (Socket.IO and HTTP).
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:5000"`
	// SocketPath is the Socket.IO endpoint path.
	SocketPath string `envconfig:"SOCKET_PATH" default:"/socket.io/"`
	// Dialect selects the event naming family: session or terminal.
	Dialect string `envconfig:"DIALECT" default:"session"`
	// BareInput sends commands as a plain string instead of an object.
	BareInput bool `envconfig:"BARE_INPUT" default:"false"`
	// EscapedOutput expands literal escape text ("\x1b", "\n") in output.
	EscapedOutput bool `envconfig:"ESCAPED_OUTPUT" default:"false"`
	// WebSocketOnly skips the long-polling transport.
	WebSocketOnly bool `envconfig:"WEBSOCKET_ONLY" default:"false"`
	// Token is the bearer token for the server, if it requires one.
	Token string `envconfig:"TOKEN"`

	// ListenAddr is where the local viewer listens.
	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`

	PollTimeout    time.Duration `envconfig:"POLL_TIMEOUT" default:"10s"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"15s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Debug forces debug logging regardless of LogLevel.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

// Load reads the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c *Config) Validate() error {
	if _, err := wire.DialectByName(c.Dialect); err != nil {
		return err
	}
	u, err := url.Parse(strings.TrimSpace(c.ServerURL))
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q (expected http(s)://host[:port])", c.ServerURL)
	}
	if !strings.HasPrefix(c.SocketPath, "/") {
		return fmt.Errorf("socket path %q must start with /", c.SocketPath)
	}
	if c.PollTimeout <= 0 || c.ConnectTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if strings.ContainsAny(c.Token, " \t\r\n") {
		return fmt.Errorf("token must not contain whitespace")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Wire returns the configured dialect. Call Validate first.
func (c *Config) Wire() wire.Dialect {
	d, err := wire.DialectByName(c.Dialect)
	if err != nil {
		return wire.SessionDialect
	}
	return d
}

// Level returns the effective log level.
func (c *Config) Level() logger.Level {
	if c.Debug {
		return logger.LevelDebug
	}
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return lvl
}
