// Package middleware provides the net/http middleware chain applied to the
// HTTPS listeners: request IDs, client IP extraction, structured request
// logging, security headers, CORS, rate limiting, and panic recovery. Each
// middleware takes a config struct with an optional Skip function.
package middleware
