package lifecycle

import "errors"

var (
	// ErrUnknownRole is returned for roles other than main and second.
	ErrUnknownRole = errors.New("unknown server role")

	// ErrNoListener is returned when a swap targets a role with no live
	// listener.
	ErrNoListener = errors.New("no live listener for role")

	// ErrRoleBound is returned when binding a role that already has a live
	// listener.
	ErrRoleBound = errors.New("role already has a live listener")
)
