package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures the cross-origin resource sharing middleware.
type CORSConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	// AllowedOrigins is the origin allow-list. "*" allows any origin.
	AllowedOrigins []string

	// AllowedMethods for preflight responses (default: common methods).
	AllowedMethods []string

	// AllowedHeaders for preflight responses (default: Content-Type,
	// Authorization, X-Request-ID).
	AllowedHeaders []string

	// AllowCredentials sets Access-Control-Allow-Credentials. Ignored when
	// the wildcard origin is allowed.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds (default: 600).
	MaxAge int
}

// CORS creates a CORS middleware for the given origin allow-list.
func CORS(allowedOrigins ...string) Middleware {
	return CORSWithConfig(CORSConfig{AllowedOrigins: allowedOrigins})
}

// CORSWithConfig creates a CORS middleware with custom configuration.
func CORSWithConfig(cfg CORSConfig) Middleware {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 600
	}

	allowAny := slices.Contains(cfg.AllowedOrigins, "*")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := allowAny || slices.Contains(cfg.AllowedOrigins, origin)
			if !allowed {
				// Not an allowed origin: no CORS headers, the browser
				// blocks the response on its side.
				next.ServeHTTP(w, r)
				return
			}

			if allowAny {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
