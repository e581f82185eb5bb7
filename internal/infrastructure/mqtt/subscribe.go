package mqtt

import "fmt"

// Subscribe routes messages on topic to handler at the configured QoS.
// Vesta subscribes to vesta/intent and vesta/voice/transcript. The
// subscription is remembered and restored after every reconnect.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case handler == nil:
		return fmt.Errorf("%w: %s: nil handler", ErrSubscribeFailed, topic)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[topic] = handler
	c.subMu.Unlock()

	err := awaitToken(c.client.Subscribe(topic, c.qos(), c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed)
	if err != nil {
		c.forget(topic)
		return err
	}
	return nil
}

// Unsubscribe stops delivery for topics and drops them from the restore
// set. The topics are forgotten even when the broker cannot be told.
func (c *Client) Unsubscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	c.forget(topics...)

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return awaitToken(c.client.Unsubscribe(topics...), defaultPublishTimeout, ErrUnsubscribeFailed)
}

func (c *Client) forget(topics ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, t := range topics {
		delete(c.subscriptions, t)
	}
}
