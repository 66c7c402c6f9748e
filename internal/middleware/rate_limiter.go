// file: internal/middleware/rate_limiter.go
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/monitoring"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

const msgRateLimited = "Trop de requêtes, réessayez dans une minute"

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	// FailOpen lets requests through when the cache is unreachable
	FailOpen bool
}

// DefaultRateLimiterConfig returns the per-user fixed window defaults
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Enabled:  true,
		Limit:    60,
		Window:   time.Minute,
		FailOpen: true,
	}
}

// RateLimiter keeps fixed-window counters per user and route in the cache
type RateLimiter struct {
	cache  cache.Cache
	config *RateLimiterConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(c cache.Cache, config *RateLimiterConfig, logger *zap.Logger) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	return &RateLimiter{cache: c, config: config, logger: logger, now: time.Now}
}

// Limit applies the limiter under the given route name. It must run after
// RequireAuth; anonymous requests are keyed by client IP.
func (rl *RateLimiter) Limit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled || rl.config.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			subject := "ip:" + getClientIP(r)
			if userID := GetUserID(ctx); userID > 0 {
				subject = "user:" + strconv.FormatInt(userID, 10)
			}

			now := rl.now()
			windowStart := now.Truncate(rl.config.Window)
			resetAt := windowStart.Add(rl.config.Window)
			key := fmt.Sprintf("ratelimit:%s:%s:%d", route, subject, windowStart.Unix())

			count, err := rl.cache.IncrementWindow(ctx, key, rl.config.Window)
			if err != nil {
				rl.logger.Warn("Rate limiter unavailable", zap.Error(err), zap.String("route", route))
				if rl.config.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				response.QuickError(w, r, services.NewServiceUnavailableError("Service temporairement indisponible"))
				return
			}

			remaining := int64(rl.config.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > int64(rl.config.Limit) {
				retryAfter := int(resetAt.Sub(now).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				monitoring.RateLimitedTotal.WithLabelValues(route).Inc()
				GetRequestLogger(ctx).Warn("Rate limit exceeded",
					zap.String("route", route),
					zap.String("subject", subject),
					zap.Int64("count", count),
					zap.Int("limit", rl.config.Limit),
				)
				response.QuickError(w, r, services.NewRateLimitError(msgRateLimited, map[string]interface{}{
					"limit":      rl.config.Limit,
					"retryAfter": retryAfter,
				}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
