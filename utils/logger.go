package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogChannel tags every entry written by the notifier.
const LogChannel = "kunenadiscord"

// NewLogger builds the notifier's logger. Debug mode logs everything; otherwise
// only warnings and errors are kept. A non-empty level overrides both.
func NewLogger(w io.Writer, debug bool, level string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	lvl := zerolog.WarnLevel
	if debug {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("channel", LogChannel).
		Logger()
}

// Module returns a sub-logger for one component.
func Module(log zerolog.Logger, module string) zerolog.Logger {
	return log.With().Str("module", module).Logger()
}
