// Package logging builds the slog loggers shared by the relay, the API
// server and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type config struct {
	level  slog.Level
	format string
	writer io.Writer
}

type Option func(*config)

// WithLevel sets the minimum level to report.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithFormat selects the text or json handler.
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = format
	}
}

func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writer = w
	}
}

// New returns a logger writing to stderr unless WithWriter says otherwise.
func New(opts ...Option) *slog.Logger {
	cfg := config{
		level:  slog.LevelInfo,
		format: FormatText,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	if cfg.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(cfg.writer, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(cfg.writer, handlerOpts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name onto a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", name)
}

// ParseFormat validates a handler format name.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (use text or json)", name)
}
