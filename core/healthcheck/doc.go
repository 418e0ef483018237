// Package healthcheck serves the liveness and status endpoints. Both are
// exempt from rate limiting so probes never get throttled out.
package healthcheck
