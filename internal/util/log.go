package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger every binary shares. Unknown levels fall
// back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "grlkrashai").Logger().Level(lvl)
}

// Named tags a subsystem logger so feed, tracker, and chain lines are
// distinguishable in one stream.
func Named(log zerolog.Logger, subsystem string) zerolog.Logger {
	return log.With().Str("subsystem", subsystem).Logger()
}
