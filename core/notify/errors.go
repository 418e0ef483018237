package notify

import "errors"

var (
	// ErrInvalidConfig is returned when a sink is constructed with missing
	// or malformed settings.
	ErrInvalidConfig = errors.New("invalid notifier configuration")

	// ErrDeliveryFailed is returned when a sink could not deliver an event.
	ErrDeliveryFailed = errors.New("failed to deliver notification")
)
