// Package logger provides structured logging for the console services.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	Level string
	// Console switches from JSON to human-readable console output.
	Console bool
	// Service is stamped on every event.
	Service string
	// Writer overrides the output destination (defaults to stderr).
	Writer io.Writer
}

// New builds the root logger for a service.
func New(opts Options) zerolog.Logger {
	var out io.Writer = os.Stderr
	if opts.Writer != nil {
		out = opts.Writer
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level := parseLevel(opts.Level)

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
