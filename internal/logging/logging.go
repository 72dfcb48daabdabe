// Package logging builds the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/natefinch/lumberjack"

	"github.com/talgya/civica/internal/config"
)

// New returns a logger writing to console and, when cfg.File is set, to a
// rotating JSON file. Console output is text on a terminal and JSON
// otherwise. The returned closer flushes the file sink.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer) {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var consoleHandler slog.Handler
	if isTerminal(console) {
		consoleHandler = slog.NewTextHandler(console, opts)
	} else {
		consoleHandler = slog.NewJSONHandler(console, opts)
	}

	if cfg.File == "" {
		return slog.New(consoleHandler), nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    max(1, cfg.MaxSizeMB),
		MaxBackups: max(0, cfg.MaxBackups),
		MaxAge:     max(0, cfg.MaxAgeDays),
		Compress:   cfg.Compress,
	}
	fileHandler := slog.NewJSONHandler(file, opts)
	return slog.New(tee{consoleHandler, fileHandler}), file
}

// Setup installs New's logger as the slog default.
func Setup(cfg config.LogConfig, console io.Writer) io.Closer {
	logger, closer := New(cfg, console)
	slog.SetDefault(logger)
	return closer
}

// ParseLevel maps debug/info/warn/error (any case) to a slog level. Unknown
// strings fall back to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// tee fans every record out to several handlers.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
