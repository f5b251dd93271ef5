// Package ui holds the terminal-facing helpers shared by commands: the
// logger and the plain confirmation prompt.
package ui

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger returns a logger writing to w. Only warnings and errors are
// shown unless verbose is set, which enables everything down to debug.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Prefix:          "fixexif",
	})
	logger.SetLevel(log.WarnLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Discard returns a logger that drops everything. Packages use it when the
// caller did not supply a logger.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
