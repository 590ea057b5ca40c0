package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Dev gets a console writer, everything else
// gets JSON on stdout.
func New(env, service string) zerolog.Logger {
	var logger zerolog.Logger

	if env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.With().
		Timestamp().
		Str("service", service).
		Logger()
}
