// SPDX-License-Identifier: MPL-2.0

// Package logging wires charmbracelet/log as the process-wide slog handler.
// Library packages log through log/slog; only the CLI calls Setup.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Options configure the logger.
type Options struct {
	// Verbose enables debug-level output.
	Verbose bool
	// Prefix is printed before every message.
	Prefix string
	// ReportTimestamp adds a timestamp to every line.
	ReportTimestamp bool
}

// New creates a charmbracelet logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// Setup installs a logger writing to w as the slog default and returns it.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := slog.New(New(w, opts))
	slog.SetDefault(logger)
	return logger
}
