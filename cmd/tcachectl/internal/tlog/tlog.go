// Package tlog configures the slog logger shared by tcachectl's
// subcommands, mirroring the teacher CLI's verbose/quiet/json global flags
// by mapping them onto a single slog.Handler rather than a bespoke print
// layer.
package tlog

import (
	"log/slog"
	"os"
)

// New builds a logger writing text to stderr by default, or JSON when
// jsonOut is set. verbose lowers the level to Debug; quiet raises it to
// Warn.
func New(verbose, quiet, jsonOut bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelWarn
	case verbose:
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if jsonOut {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
