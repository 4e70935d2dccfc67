package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Component is the value of the "component" field on every logger built here.
const Component = "blendbake"

// ParseLevel maps a case-insensitive level name to a zerolog level. Unknown names fall back to info.
//
// Parameters:
//   - level: one of trace, debug, info, warn, error
//
// Returns:
//   - zerolog.Level: the parsed level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a JSON logger writing to w with RFC3339 UTC timestamps and a component field.
//
// Parameters:
//   - w: the destination writer
//   - level: the minimum level, see ParseLevel
//
// Returns:
//   - zerolog.Logger: the configured logger
func New(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("component", Component).
		Logger()
}

// NewConsole creates a human readable logger for terminals. Colors are disabled when noColor is set,
// e.g. when the output is redirected to a file.
//
// Parameters:
//   - w: the destination writer
//   - level: the minimum level, see ParseLevel
//   - noColor: disables ANSI colors
//
// Returns:
//   - zerolog.Logger: the configured logger
func NewConsole(w io.Writer, level string, noColor bool) zerolog.Logger {
	return New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}, level)
}

// Sub returns a child of logger tagged with a sub-component name.
func Sub(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("sub", name).Logger()
}
