package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrInvalidFrame) {
//	    // drop and keep scanning
//	}
var (
	// ErrInvalidFrame is returned when a sensor frame is not a JSON object.
	ErrInvalidFrame = errors.New("device: invalid frame")

	// ErrUnknownCommand is returned when a command is outside the vocabulary.
	ErrUnknownCommand = errors.New("device: unknown command")

	// ErrInvalidPWM is returned when a FAN_PWM value cannot be parsed.
	ErrInvalidPWM = errors.New("device: invalid fan pwm value")
)
