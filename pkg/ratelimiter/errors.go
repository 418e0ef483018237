package ratelimiter

import "errors"

var (
	// ErrInvalidConfig is returned when bucket parameters are not usable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidTokenCount is returned when AllowN is asked to consume a
	// non-positive number of tokens.
	ErrInvalidTokenCount = errors.New("invalid token count")

	// ErrContextCancelled is returned when the caller's context ended
	// before the check ran.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrStoreUnavailable wraps a storage backend failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
