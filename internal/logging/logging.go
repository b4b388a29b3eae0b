// Package logging builds the application's *slog.Logger.
//
// Everything logs through log/slog. This package only decides where the
// lines go (stdout, plus an optional rotating file) and how they look
// (text for a terminal, JSON for a log shipper).
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirrors the LOG_* config keys.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Path       string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns the logger and a close function for the file sink.
// The close function is always safe to call.
//
// ROTATION:
// lumberjack.Logger is an io.Writer that renames the file once it reaches
// MaxSizeMB and deletes backups older than MaxAgeDays or beyond MaxBackups.
// slog does not know rotation exists; it just writes.
func New(opts Options) (*slog.Logger, func() error) {
	return newWithStdout(opts, os.Stdout)
}

func newWithStdout(opts Options, stdout io.Writer) (*slog.Logger, func() error) {
	var (
		w       = stdout
		closeFn = func() error { return nil }
	)

	if opts.Path != "" {
		_ = os.MkdirAll(filepath.Dir(opts.Path), 0o755)
		lj := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
		}
		w = io.MultiWriter(stdout, lj)
		closeFn = lj.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(h), closeFn
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
