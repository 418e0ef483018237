// Package server wraps http.Server with synchronous binding, active
// connection tracking, and bounded draining. Binding and serving are separate
// so callers learn about bind failures immediately; renewal swaps depend on
// a new listener being confirmed live before the old one is drained.
//
// Listeners are created with SO_REUSEPORT where the platform supports it, so
// a replacement server can bind the same port while its predecessor is still
// draining.
package server
