package registry

import "errors"

var (
	// ErrRegistry is returned when the status record cannot be read or
	// written.
	ErrRegistry = errors.New("server status registry error")

	// ErrAwaitTimeout is returned when a readiness wait gives up.
	ErrAwaitTimeout = errors.New("timed out waiting for server readiness")
)
