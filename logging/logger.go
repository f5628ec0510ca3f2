// Package logging configures the service-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger. LOG_LEVEL picks the global level (default
// info); DEV_MODE=true switches to the human-readable console writer.
func Setup() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if os.Getenv("DEV_MODE") == "true" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.With().Timestamp().Str("service", "content-optimizer").Logger()
}
