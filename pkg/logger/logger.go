// Package logger builds the console logger shared by the command line tools.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures a console logger.
type Options struct {
	// Debug lowers the level to debug, which reports per-unit timings.
	Debug bool

	// Quiet raises the level to error.
	Quiet bool

	// Writer receives the output. Defaults to stderr.
	Writer io.Writer
}

// New creates a timestamped console logger.
func New(options Options) *log.Logger {
	level := log.InfoLevel
	switch {
	case options.Debug:
		level = log.DebugLevel
	case options.Quiet:
		level = log.ErrorLevel
	}

	writer := options.Writer
	if writer == nil {
		writer = os.Stderr
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
