package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrNotConnected is returned when the link is closed or its reader has
	// given up on the port.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrSendFailed is returned when a command line cannot be written.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrOpenFailed is returned when a port cannot be opened.
	ErrOpenFailed = errors.New("transport: open failed")
)
