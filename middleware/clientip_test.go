package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackway/edgecert/middleware"
)

func extractedIP(t *testing.T, cfg middleware.ClientIPConfig, mutate func(*http.Request)) string {
	t.Helper()

	var got string
	handler := middleware.ClientIPWithConfig(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4711"
	if mutate != nil {
		mutate(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	t.Run("uses the connection address by default", func(t *testing.T) {
		t.Parallel()

		ip := extractedIP(t, middleware.ClientIPConfig{}, nil)
		assert.Equal(t, "192.0.2.1", ip)
	})

	t.Run("ignores forwarding headers unless trusted", func(t *testing.T) {
		t.Parallel()

		ip := extractedIP(t, middleware.ClientIPConfig{}, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "203.0.113.9")
		})
		assert.Equal(t, "192.0.2.1", ip)
	})

	t.Run("takes the first forwarded entry when trusted", func(t *testing.T) {
		t.Parallel()

		ip := extractedIP(t, middleware.ClientIPConfig{TrustProxyHeaders: true}, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.2")
		})
		assert.Equal(t, "203.0.113.9", ip)
	})

	t.Run("falls back to x-real-ip when trusted", func(t *testing.T) {
		t.Parallel()

		ip := extractedIP(t, middleware.ClientIPConfig{TrustProxyHeaders: true}, func(r *http.Request) {
			r.Header.Set("X-Real-IP", "203.0.113.10")
		})
		assert.Equal(t, "203.0.113.10", ip)
	})

	t.Run("rejects garbage in forwarding headers", func(t *testing.T) {
		t.Parallel()

		ip := extractedIP(t, middleware.ClientIPConfig{TrustProxyHeaders: true}, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "not-an-ip")
		})
		assert.Equal(t, "192.0.2.1", ip)
	})
}

func TestGetClientIP_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:9999"
	assert.Equal(t, "192.0.2.7", middleware.GetClientIP(req))
}
