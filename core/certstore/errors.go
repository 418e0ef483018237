package certstore

import "errors"

var (
	// ErrNotFound is returned when a named certificate artifact is absent.
	// This is an expected, handled state, not a failure.
	ErrNotFound = errors.New("certificate not found")

	// ErrStore is returned for filesystem I/O failures other than absence.
	ErrStore = errors.New("certificate store error")

	// ErrIntegrity is returned when written content does not read back
	// byte-identical to the input.
	ErrIntegrity = errors.New("write verification mismatch")
)
