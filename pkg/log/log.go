// Package log sets up zerolog for the commands. Loggers always write to
// stderr: stdout is reserved for the JSON result that the calling process
// (typically a PHP script shelling out) parses.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a structured JSON logger for the given component, writing to
// stderr at the given level.
func New(component, level string) zerolog.Logger {
	return NewWithWriter(component, level, os.Stderr)
}

// NewWithWriter is New with an explicit destination, used by tests.
func NewWithWriter(component, level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// ParseLevel converts a level string from configuration into a zerolog
// level. Unknown values fall back to info rather than failing startup.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
