// SPDX-License-Identifier: MPL-2.0

// Package logging constructs the loggers used across taskpipe.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Prefix overrides the default "taskpipe" prefix.
	Prefix string
	// Writer overrides the default os.Stderr destination.
	Writer io.Writer
}

// New returns a logger configured for CLI use. Diagnostics go to stderr so
// that captured step output on stdout stays clean.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "taskpipe"
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  level,
	})
}
