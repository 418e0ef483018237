package issue

import "errors"

var (
	// ErrMissingClient is returned when the workflow is built without a CA
	// client.
	ErrMissingClient = errors.New("ca client is required")

	// ErrMissingStore is returned when the workflow is built without a
	// certificate store.
	ErrMissingStore = errors.New("certificate store is required")

	// ErrMissingChallengeDir is returned when the workflow is built without
	// a challenge directory.
	ErrMissingChallengeDir = errors.New("challenge directory is required")

	// ErrMissingDomain is returned when no domain is configured.
	ErrMissingDomain = errors.New("domain is required")
)
