package server

import "errors"

var (
	// ErrBind is returned when the listener fails to start.
	ErrBind = errors.New("failed to bind listener")

	// ErrServerAlreadyRunning is returned when Listen is called on a bound
	// server.
	ErrServerAlreadyRunning = errors.New("server is already running")

	// ErrMissingAddress is returned when no listen address is provided.
	ErrMissingAddress = errors.New("server address is required")
)
