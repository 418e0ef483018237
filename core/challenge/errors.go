package challenge

import "errors"

var (
	// ErrDirRequired is returned when no challenge directory is configured.
	ErrDirRequired = errors.New("challenge directory is required")

	// ErrIntegrity is returned when a written artifact does not read back
	// byte-identical.
	ErrIntegrity = errors.New("challenge write verification mismatch")
)
