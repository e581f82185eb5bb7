package mqtt

import "errors"

// Sentinel errors. Failures carrying a broker cause wrap one of these, so
// check with errors.Is.
var (
	ErrNotConnected      = errors.New("mqtt: not connected to broker")
	ErrConnectionFailed  = errors.New("mqtt: connection failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidTopic is returned for an empty topic or event name.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
