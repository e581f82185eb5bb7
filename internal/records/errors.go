package records

import "errors"

// Domain errors for the records package.
var (
	// ErrSinkClosed is returned when writing to a closed sink.
	ErrSinkClosed = errors.New("records: sink closed")

	// ErrUnknownKind is returned for a record kind with no destination.
	ErrUnknownKind = errors.New("records: unknown record kind")
)
