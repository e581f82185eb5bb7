package learning

import "errors"

var (
	// ErrStopped is returned when a sample is offered after Stop.
	ErrStopped = errors.New("learning: brain stopped")

	// ErrInvalidSample is returned for samples that cannot be learned from.
	ErrInvalidSample = errors.New("learning: invalid sample")
)
