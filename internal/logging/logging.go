// Package logging configures zerolog for ralphctl.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var root zerolog.Logger = zerolog.New(consoleWriter()).With().Timestamp().Logger().Level(zerolog.InfoLevel)

// Init configures the root logger. Level is one of debug, info, warn, error.
// Format is console or json.
func Init(level, format string) {
	var w io.Writer = os.Stderr
	if strings.EqualFold(format, "console") || format == "" {
		w = consoleWriter()
	}

	root = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
}
