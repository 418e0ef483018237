package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/pkg/ratelimiter"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	// Limiter is the rate limiting implementation to use
	Limiter ratelimiter.RateLimiter

	// KeyExtractor defines how to extract the rate limiting key from
	// requests (default: client IP)
	KeyExtractor func(r *http.Request) string

	// SetHeaders includes rate limit information in response headers
	SetHeaders bool

	// Logger for limiter backend failures (default: discard)
	Logger *slog.Logger
}

// RateLimit creates a rate limiting middleware. Panics if no limiter is
// provided. When the limiter backend fails the request is allowed through:
// availability of the edge wins over strict enforcement.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = GetClientIP
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	log := cfg.Logger.With(logger.Component("ratelimit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.Allow(r.Context(), cfg.KeyExtractor(r))
			if err != nil {
				log.Error("rate limiter unavailable, allowing request", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if cfg.SetHeaders {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(result.Remaining, 0)))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}

			if !result.Allowed() {
				retryAfter := int(result.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprintf(w, `{"error":"too many requests","retry_after":%d}`, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
