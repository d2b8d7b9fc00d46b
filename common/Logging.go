package common

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the launcher's logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          AppName,
		Level:           lvl,
	})
}

// DiscardLogger returns a logger that writes nowhere. Used by tests and by
// callers that do not care about progress output.
func DiscardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
