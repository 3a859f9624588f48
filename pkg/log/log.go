// Package log configures the zerolog logger used across the pipeline.
// Every stage of a run logs structured events (stage name, durations,
// record/attribute counts) so a batch run leaves a machine-readable trail.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// Setup returns a root logger writing to w at the given level. When
// console is true the output is human-readable, otherwise JSON.
func Setup(w io.Writer, level string, console bool) (zerolog.Logger, error) {
	lvl, err := ToLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Default returns a console logger on stderr at info level.
func Default() zerolog.Logger {
	l, _ := Setup(os.Stderr, "info", true)
	return l
}

// ToLevel parses a level name into a zerolog level.
func ToLevel(level string) (zerolog.Level, error) {
	switch level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, errors.Newf("invalid log level %q", level)
	}
}

// Stage returns a sub-logger scoped to one pipeline stage.
func Stage(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("stage", name).Logger()
}
