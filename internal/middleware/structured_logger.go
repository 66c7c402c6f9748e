// file: internal/middleware/structured_logger.go
package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig holds configuration for structured logging middleware
type LoggingConfig struct {
	SlowRequestThreshold time.Duration
	VerySlowThreshold    time.Duration
	// Paths matching these prefixes are served without completion logs
	SkipPaths []string
	// Query parameters whose values are masked
	SensitiveParams []string
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: time.Second,
		VerySlowThreshold:    5 * time.Second,
		SkipPaths:            []string{"/metrics", "/swagger/"},
		SensitiveParams:      []string{"password", "token", "key", "secret", "code"},
	}
}

const requestUserKey ContextKey = "request_user"

// requestUser is filled by the auth middleware further down the chain so
// the completion log can carry the user id.
type requestUser struct {
	id int64
}

func markRequestUser(ctx context.Context, userID int64) {
	if holder, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		holder.id = userID
	}
}

// StructuredLogging logs one completion line per request
func StructuredLogging(config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			start := GetRequestStart(r.Context())
			holder := &requestUser{}
			writer := wrapResponseWriter(w)

			next.ServeHTTP(writer, r.WithContext(context.WithValue(r.Context(), requestUserKey, holder)))

			logCompletedRequest(GetRequestLogger(r.Context()), r, writer, holder.id, time.Since(start), config)
		})
	}
}

func logCompletedRequest(logger *zap.Logger, r *http.Request, w *responseWriter, userID int64, duration time.Duration, config *LoggingConfig) {
	fields := []zap.Field{
		zap.Int("status", w.status),
		zap.Duration("duration", duration),
		zap.Int64("response_size", w.bytesWritten),
	}
	if r.URL.RawQuery != "" {
		fields = append(fields, zap.String("query", sanitizeQuery(r.URL.Query(), config.SensitiveParams)))
	}
	if userID > 0 {
		fields = append(fields, zap.Int64("user_id", userID))
	}

	switch getLogLevel(w.status, duration, config) {
	case zapcore.ErrorLevel:
		logger.Error("HTTP request completed with error", fields...)
	case zapcore.WarnLevel:
		logger.Warn("HTTP request completed with warning", fields...)
	default:
		logger.Info("HTTP request completed", fields...)
	}

	if duration > config.SlowRequestThreshold {
		logger.Warn("Slow request detected",
			zap.Duration("duration", duration),
			zap.Duration("threshold", config.SlowRequestThreshold),
		)
	}
}

func getLogLevel(status int, duration time.Duration, config *LoggingConfig) zapcore.Level {
	if status >= 500 {
		return zapcore.ErrorLevel
	}
	if status >= 400 || duration > config.VerySlowThreshold {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func sanitizeQuery(query url.Values, sensitive []string) string {
	for key := range query {
		lower := strings.ToLower(key)
		for _, s := range sensitive {
			if strings.Contains(lower, s) {
				query.Set(key, "***")
				break
			}
		}
	}
	return query.Encode()
}

func shouldSkip(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
