// Package rtlog is the runtime's own operational logger: loop state
// transitions, transport errors, extension protocol violations. It is
// deliberately separate from anything the user handler writes to stdout/
// stderr, which the host captures independently.
package rtlog

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	level    = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)
	opLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Op returns the current operational logger.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetLevelFromString sets the operational log level. Unrecognized values
// are ignored, leaving the previous level in place.
func SetLevelFromString(l string) {
	switch l {
	case "debug", "DEBUG":
		level.Set(slog.LevelDebug)
	case "info", "INFO", "":
		level.Set(slog.LevelInfo)
	case "warn", "WARN", "warning":
		level.Set(slog.LevelWarn)
	case "error", "ERROR":
		level.Set(slog.LevelError)
	}
}

// InitStructured reconfigures the operational logger's output format.
// format is "text" (default) or "json".
func InitStructured(format, lvl string) {
	SetLevelFromString(lvl)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	opLogger.Store(slog.New(handler))
}

// WithTrace returns the operational logger annotated with the current
// invocation's trace id, for log lines emitted while dispatching it.
func WithTrace(traceID string) *slog.Logger {
	l := opLogger.Load()
	if traceID == "" {
		return l
	}
	return l.With("trace_id", traceID)
}
