package intent

import "errors"

// ErrInvalidOptions is returned when a component is built without a
// required dependency.
var ErrInvalidOptions = errors.New("intent: invalid options")
