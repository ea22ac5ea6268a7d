// Package logger is the process-wide leveled logger used by termroom.
//
// It keeps the printf-style facade (Tracef, Debugf, ...) used throughout the
// codebase and routes everything through a zerolog logger so that session
// scoped components can attach structured fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is the verbosity threshold used by the logger.
//
// Lower values are more verbose.
type Level int8

const (
	// LevelTrace enables extremely verbose logs (socket events, reducer inputs).
	LevelTrace Level = iota
	// LevelDebug enables verbose logs intended for debugging.
	LevelDebug
	// LevelInfo enables informational logs (default).
	LevelInfo
	// LevelWarn enables only warnings and errors.
	LevelWarn
	// LevelError enables only error logs.
	LevelError
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	mu    sync.RWMutex
	level = LevelInfo

	out    io.Writer = os.Stderr
	global           = build(out, level)
)

func build(w io.Writer, lvl Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(console).Level(lvl.zerolog()).With().Timestamp().Logger()
}

// ParseLevel parses a log level string into a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SetOutput replaces the writer used by the global logger.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	mu.Lock()
	defer mu.Unlock()
	out = w
	global = build(out, level)
}

// SetLevel sets the global log level threshold.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	global = build(out, level)
}

// Enabled reports whether a level would be emitted by the current configuration.
func Enabled(lvl Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return lvl >= level
}

// L returns the underlying structured logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// WithSession returns a logger annotated with the session id.
func WithSession(sessionID string) zerolog.Logger {
	return L().With().Str("session", sessionID).Logger()
}

// WithComponent returns a logger annotated with a component name.
func WithComponent(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}

// Tracef logs at TRACE level.
func Tracef(format string, args ...any) {
	L().Trace().Msgf(format, args...)
}

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) {
	L().Debug().Msgf(format, args...)
}

// Infof logs at INFO level.
func Infof(format string, args ...any) {
	L().Info().Msgf(format, args...)
}

// Warnf logs at WARN level.
func Warnf(format string, args ...any) {
	L().Warn().Msgf(format, args...)
}

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) {
	L().Error().Msgf(format, args...)
}
