// Package logger holds the process-wide zerolog logger. Packages derive
// component loggers from it with For.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// L is the root logger. Configure replaces it at startup.
var L = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Configure sets the global level and output format ("json" or "console").
func Configure(level, format string) {
	Init(os.Stdout, level, format)
}

// Init is Configure with an explicit writer, used by tests and the CLI.
func Init(w io.Writer, level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	L = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps debug/info/warn/error to a zerolog level, defaulting to info.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// For returns a child logger tagged with the component name.
func For(component string) zerolog.Logger {
	return L.With().Str("component", component).Logger()
}
