// Package logger builds charmbracelet/log loggers for the app components.
// Loggers write to stderr so that stdout stays free for the IPC stream.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a component logger that follows the global log level.
func New(prefix string) *log.Logger {
	return NewWithConfig(os.Stderr, prefix, log.GetLevel(), false, log.GetLevel() == log.DebugLevel)
}

// NewWithConfig creates a text logger with explicit settings.
func NewWithConfig(w io.Writer, prefix string, level log.Level, caller, timestamp bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: timestamp,
		Formatter:       log.TextFormatter,
	})
}
