package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Options controls how the global logger is built.
type Options struct {
	Level  string
	Format string    // text | json
	Output io.Writer // defaults to os.Stderr; stdout is reserved for skill output
}

// Setup initializes the global logger.
// logic: default to WARN. If level is invalid, fallback to WARN.
func Setup(opts Options) {
	once.Do(func() {
		logger = build(opts)
		slog.SetDefault(logger)
	})
}

func build(opts Options) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(opts.Level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "INFO":
		l = slog.LevelInfo
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: l}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler)
}

// Get returns the configured logger, or a default one if Setup hasn't been called.
func Get() *slog.Logger {
	if logger == nil {
		Setup(Options{})
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithSkill returns a logger with the skill field set.
func WithSkill(name string) *slog.Logger {
	return Get().With(slog.String("skill", name))
}
