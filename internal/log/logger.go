package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	loggerKey        contextKey = "logger"
)

// Logger is the process-wide structured logger. Request handlers get a copy carrying the
// correlation_id attribute.
type Logger struct {
	*slog.Logger
}

type Options struct {
	Level   slog.Level
	Text    bool   // human-readable output instead of JSON
	Service string // added as "service" on every record when set
}

func NewLogger(w io.Writer, opts Options) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Text {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	return &Logger{Logger: logger}
}

// NewLoggerWithJSONOutput logs JSON at info level to stdout.
func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout, Options{Level: slog.LevelInfo})
}

// NewLoggerFromEnv honours LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (json, text).
func NewLoggerFromEnv(service string) *Logger {
	return NewLogger(os.Stdout, Options{
		Level:   ParseLevel(os.Getenv("LOG_LEVEL")),
		Text:    strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text"),
		Service: service,
	})
}

// ParseLevel falls back to info for anything it does not recognise.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id := CorrelationIDFromContext(ctx)
	if id == "" {
		id = GenerateCorrelationID()
	}

	return &Logger{Logger: l.Logger.With(string(correlationIDKey), id)}
}

func GenerateCorrelationID() string {
	return uuid.NewString()
}

func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext prefers the request logger injected by the router, then fallback tagged with the
// context's correlation ID.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if fallback == nil {
		fallback = NewLoggerWithJSONOutput()
	}
	if ctx == nil {
		return fallback
	}

	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return fallback.WithCorrelationID(ctx)
}
