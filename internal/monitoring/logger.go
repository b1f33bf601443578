package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with domain log helpers. The JSON handler is installed as
// the process default so package-level slog calls share the format.
type Logger struct {
	*slog.Logger
}

// NewLogger builds the JSON logger and installs it as slog's default.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return &Logger{Logger: logger}
}

// RequestLogger logs one HTTP request.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("http request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AssessmentLogger logs one completed assessment run.
func (l *Logger) AssessmentLogger(runID, productURL, depth string, overall float64, availableSources, conflicts int, duration time.Duration) {
	l.Info("assessment completed",
		"run_id", runID,
		"product_url", productURL,
		"depth", depth,
		"overall_rating", overall,
		"available_sources", availableSources,
		"conflicts", conflicts,
		"duration_ms", duration.Milliseconds(),
	)
}

// SourceUnavailableLogger logs a source dropping out of a run.
func (l *Logger) SourceUnavailableLogger(runID, source, reason string) {
	l.Warn("source unavailable",
		"run_id", runID,
		"source", source,
		"reason", reason,
	)
}

// CollaboratorLogger logs one external collaborator call.
func (l *Logger) CollaboratorLogger(collaborator, operation string, duration time.Duration, err error) {
	level := slog.LevelInfo
	attrs := []any{
		"collaborator", collaborator,
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err.Error())
	}
	l.Log(context.Background(), level, "collaborator call", attrs...)
}

// CacheLogger logs a response cache operation.
func (l *Logger) CacheLogger(operation, key string, hit bool, size int) {
	keyHash := key
	if len(keyHash) > 8 {
		keyHash = keyHash[:8] + "..."
	}
	l.Debug("cache operation",
		"operation", operation,
		"key_hash", keyHash,
		"hit", hit,
		"cache_size", size,
	)
}

// SystemLogger logs lifecycle events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("system event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
