// Package logging configures the process-wide zerolog logger, grounded
// on the teacher's shared.SetupStructuredLogger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a structured JSON logger writing to path, or stderr if
// path is empty (spec.md §4.9: "writing to LOG_PATH if set else
// stderr"). debug raises the level to debug.
func New(path string, debug bool) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		out = f
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ForTable returns a child logger scoped to a table/hand pair, so every
// engine-adjacent log line carries table_id and hand_id fields per
// spec.md §4.9.
func ForTable(base zerolog.Logger, tableID int, handID int64) zerolog.Logger {
	return base.With().Int("table_id", tableID).Int64("hand_id", handID).Logger()
}
