package kafka

import "errors"

var (
	// ErrDisabled indicates record export is disabled in config.
	ErrDisabled = errors.New("kafka: disabled in configuration")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("kafka: producer closed")

	// ErrWriteFailed wraps broker write failures.
	ErrWriteFailed = errors.New("kafka: write failed")
)
