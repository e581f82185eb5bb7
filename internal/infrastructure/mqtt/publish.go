package mqtt

import "fmt"

// maxPayloadSize caps a single outbound message. Snapshots and events are
// a few hundred bytes.
const maxPayloadSize = 64 << 10

// PublishState publishes a device snapshot on vesta/state. The message is
// retained so a client that subscribes later still gets the current state.
func (c *Client) PublishState(payload []byte) error {
	return c.publish(Topics{}.State(), payload, true)
}

// PublishEvent publishes a named event (voice_heard, action_ack) on
// vesta/event/<name>. Events are never retained.
func (c *Client) PublishEvent(name string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("%w: event name", ErrInvalidTopic)
	}
	return c.publish(Topics{}.Event(name), payload, false)
}

// publish sends payload at the configured QoS and waits for the broker.
func (c *Client) publish(topic string, payload []byte, retained bool) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %s payload is %d bytes, limit %d",
			ErrPublishFailed, topic, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return awaitToken(c.client.Publish(topic, c.qos(), retained, payload), defaultPublishTimeout, ErrPublishFailed)
}
