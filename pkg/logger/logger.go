package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where log files are written when no directory is given.
const DefaultDir = "logs"

// New creates a structured slog.Logger writing to the console and to
// JSON files under logs/.
func New(level string) (*slog.Logger, error) {
	return NewWithDir(DefaultDir, level)
}

// NewWithDir is New with a configurable log directory.
func NewWithDir(dir, level string) (*slog.Logger, error) {
	handlerLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	errorFile, err := openAppend(filepath.Join(dir, "error.log"))
	if err != nil {
		return nil, err
	}

	infoFile, err := openAppend(filepath.Join(dir, "info.log"))
	if err != nil {
		errorFile.Close()
		return nil, err
	}

	// Console is text for humans, files are JSON for parsing.
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel})
	infoSink := slog.NewJSONHandler(infoFile, &slog.HandlerOptions{Level: handlerLevel})
	errorSink := slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(NewFanoutHandler(handlerLevel, console, infoSink, errorSink)), nil
}

// Discard returns a logger that drops every record. Used by tests and scripts.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// FanoutHandler writes every enabled record to the console and info sinks
// and duplicates errors into the error sink.
type FanoutHandler struct {
	console   slog.Handler
	infoSink  slog.Handler
	errorSink slog.Handler
	level     slog.Leveler
}

// NewFanoutHandler wires the three sinks behind a single minimum level.
func NewFanoutHandler(level slog.Leveler, console, infoSink, errorSink slog.Handler) *FanoutHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &FanoutHandler{
		console:   console,
		infoSink:  infoSink,
		errorSink: errorSink,
		level:     level,
	}
}

func (h *FanoutHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	if err := h.console.Handle(ctx, r); err != nil {
		errs = append(errs, err)
	}
	if err := h.infoSink.Handle(ctx, r); err != nil {
		errs = append(errs, err)
	}
	if r.Level >= slog.LevelError {
		if err := h.errorSink.Handle(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FanoutHandler{
		console:   h.console.WithAttrs(attrs),
		infoSink:  h.infoSink.WithAttrs(attrs),
		errorSink: h.errorSink.WithAttrs(attrs),
		level:     h.level,
	}
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	return &FanoutHandler{
		console:   h.console.WithGroup(name),
		infoSink:  h.infoSink.WithGroup(name),
		errorSink: h.errorSink.WithGroup(name),
		level:     h.level,
	}
}

// ParseLevel maps a textual level to a slog level.
func ParseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, errors.New("invalid log level")
	}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
