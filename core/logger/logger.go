package logger

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	output io.Writer
	level  slog.Level
	json   bool
	attrs  []slog.Attr
}

// Option configures the logger factory.
type Option func(*config)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the log destination.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithJSONFormat switches output from text to JSON.
func WithJSONFormat() Option {
	return func(c *config) {
		c.json = true
	}
}

// WithAttr attaches a fixed attribute to every record.
func WithAttr(attr slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attr)
	}
}

// New builds a *slog.Logger. Defaults: text format, info level, stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		output: os.Stdout,
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ho := &slog.HandlerOptions{Level: cfg.level}
	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(cfg.output, ho)
	} else {
		handler = slog.NewTextHandler(cfg.output, ho)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record. Useful as a default
// for components that accept an optional logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
