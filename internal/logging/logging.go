// Package logging configures the application-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	base = newLogger()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if env := os.Getenv("RAYLIGHT_LOG"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Logger returns the root application logger.
func Logger() zerolog.Logger {
	return base
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
