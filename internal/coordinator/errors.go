package coordinator

import "errors"

var (
	// ErrInvalidOptions is returned by New when a required dependency is missing.
	ErrInvalidOptions = errors.New("coordinator: invalid options")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("coordinator: already started")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("coordinator: stopped")
)
