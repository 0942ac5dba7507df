package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

var (
	logger   = zerolog.New(os.Stdout).With().Timestamp().Logger()
	loggerMu sync.RWMutex
)

// Setup configures the global logger. Development mode uses the console
// writer, otherwise JSON goes to stdout.
func Setup(level string, development bool) {
	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()
}

// SetOutput redirects the global logger, keeping its level. Used by the CLI to
// keep logs out of the chat transcript.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = logger.Output(w)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func Logger() *zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	l := logger
	return &l
}

// WithFields returns base with additional fields. A nil base means the
// global logger.
func WithFields(base *zerolog.Logger, fields map[string]any) *zerolog.Logger {
	if base == nil {
		base = Logger()
	}
	l := base.With().Fields(fields).Logger()
	return &l
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestID returns the request_id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	return reqID
}

// LoggerFromContext adds request_id if present.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	reqID := RequestID(ctx)
	if reqID == "" {
		return Logger()
	}
	l := Logger().With().Str("request_id", reqID).Logger()
	return &l
}
