// Package logging provides structured logging configuration using log/slog.
//
// Every import run carries a run id in its context. FromContext attaches it to
// each entry so that all lines of one run can be correlated, including the
// lines written by the ledger and the request client.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger based on level and format and
// writes to w. The CLI passes stderr so stdout only carries progress lines.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	logger := New(level, format, w)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without installing it as the default.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRunID stores the run id on ctx so FromContext can attach it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return core.ContextWithRunID(ctx, runID)
}

// FromContext returns the default logger enriched with the run id and the
// request id of the API call in flight, when present.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := core.RunIDFromContext(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	batchLogger := logging.WithFields(ctx, "batch", i, "size", len(batch))
//	batchLogger.Debug("batch started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
