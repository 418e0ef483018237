package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/middleware"
	"github.com/stackway/edgecert/pkg/ratelimiter"
)

// fakeLimiter returns canned results keyed by the extraction key.
type fakeLimiter struct {
	mu     sync.Mutex
	result *ratelimiter.Result
	err    error
	keys   []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (*ratelimiter.Result, error) {
	return f.AllowN(ctx, key, 1)
}

func (f *fakeLimiter) AllowN(_ context.Context, key string, _ int) (*ratelimiter.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.result, f.err
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("panics without a limiter", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			middleware.RateLimit(middleware.RateLimitConfig{})
		})
	})

	t.Run("allows requests under the limit", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeLimiter{result: &ratelimiter.Result{Limit: 100, Remaining: 42, ResetAt: time.Now().Add(time.Minute)}}
		handler := middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:    limiter,
			SetHeaders: true,
		})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "42", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"192.0.2.1"}, limiter.keys)
	})

	t.Run("denies requests over the limit", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeLimiter{result: &ratelimiter.Result{Limit: 100, Remaining: -1, ResetAt: time.Now().Add(30 * time.Second)}}
		handler := middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:    limiter,
			SetHeaders: true,
		})(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "too many requests", body["error"])
	})

	t.Run("fails open when the backend is unavailable", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeLimiter{err: errors.New("redis down")}
		handler := middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter})(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip bypasses the limiter entirely", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeLimiter{result: &ratelimiter.Result{Remaining: -1}}
		handler := middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: limiter,
			Skip:    func(r *http.Request) bool { return r.URL.Path == "/health" },
		})(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, limiter.keys)
	})

	t.Run("uses a custom key extractor", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeLimiter{result: &ratelimiter.Result{Remaining: 1}}
		handler := middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:      limiter,
			KeyExtractor: func(r *http.Request) string { return r.Header.Get("X-API-Key") },
		})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "tenant-7")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, []string{"tenant-7"}, limiter.keys)
	})
}
