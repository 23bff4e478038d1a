// Package logging builds the structured loggers used across tandem.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls where and how log records are written.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is "text" or "json". Defaults to text.
	Format string
	// File is the log file path. Empty means stderr.
	File string
	// LevelVar, when set, receives Level and controls the logger, so the
	// caller can change the level later.
	LevelVar *slog.LevelVar
}

// New creates a logger from options. It returns a close function that must be
// called on shutdown when a file was opened.
// Creates parent directories of File if they don't exist.
func New(opts Options) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	level := opts.LevelVar
	if level == nil {
		level = &slog.LevelVar{}
	}
	level.Set(ParseLevel(opts.Level))
	return newLogger(w, opts.Format, level), closeFn, nil
}

// NewWithLevel is like New but lets the caller keep the LevelVar so the level
// can be changed while the process runs.
func NewWithLevel(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	return newLogger(w, format, level)
}

func newLogger(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
