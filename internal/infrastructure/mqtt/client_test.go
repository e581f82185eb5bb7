package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// connectOrSkip connects to the local broker or skips the test when none is running.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	client, err := Connect(testConfig(clientID))
	if err != nil {
		t.Skipf("MQTT broker not available at 127.0.0.1:1883: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

// =============================================================================
// Tests that need no broker
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		publish func() error
		want    error
	}{
		{"oversized state", func() error { return client.PublishState(make([]byte, maxPayloadSize+1)) }, ErrPublishFailed},
		{"state not connected", func() error { return client.PublishState([]byte("{}")) }, ErrNotConnected},
		{"empty event name", func() error { return client.PublishEvent("", []byte("{}")) }, ErrInvalidTopic},
		{"event not connected", func() error { return client.PublishEvent("action_ack", []byte("{}")) }, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.publish(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]MessageHandler)}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		handler MessageHandler
		want    error
	}{
		{"empty topic", "", handler, ErrInvalidTopic},
		{"nil handler", "vesta/intent", nil, ErrSubscribeFailed},
		{"not connected", "vesta/intent", handler, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Subscribe(tt.topic, tt.handler); !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(client.subscriptions) != 0 {
		t.Errorf("subscriptions = %d, want 0 after failed subscribes", len(client.subscriptions))
	}
}

func TestUnsubscribe_ForgetsWhileDisconnected(t *testing.T) {
	handler := func(string, []byte) error { return nil }
	client := &Client{subscriptions: map[string]MessageHandler{
		"vesta/intent":           handler,
		"vesta/voice/transcript": handler,
	}}

	if err := client.Unsubscribe(); err != nil {
		t.Errorf("Unsubscribe() with no topics error = %v", err)
	}
	if err := client.Unsubscribe("vesta/intent"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
	if _, ok := client.subscriptions["vesta/intent"]; ok {
		t.Error("vesta/intent should no longer be restored on reconnect")
	}
	if _, ok := client.subscriptions["vesta/voice/transcript"]; !ok {
		t.Error("other subscriptions should be kept")
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"State", Topics{}.State(), "vesta/state"},
		{"Event", Topics{}.Event("voice_heard"), "vesta/event/voice_heard"},
		{"Intent", Topics{}.Intent(), "vesta/intent"},
		{"Transcript", Topics{}.Transcript(), "vesta/voice/transcript"},
		{"SystemStatus", Topics{}.SystemStatus(), "vesta/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.expected)
		}
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig("vesta-test-refused")
	cfg.Broker.Port = 19998

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should fail for refused connection")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Tests against a live broker
// =============================================================================

func TestConnectAndClose(t *testing.T) {
	client := connectOrSkip(t, "vesta-test-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestEventRoundtrip(t *testing.T) {
	pub := connectOrSkip(t, "vesta-test-pub")
	sub := connectOrSkip(t, "vesta-test-sub")

	type message struct{ topic, payload string }
	received := make(chan message, 4)
	handler := func(topic string, payload []byte) error {
		received <- message{topic, string(payload)}
		return nil
	}
	if err := sub.Subscribe(Topics{}.Event("action_ack"), handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.PublishEvent("action_ack", []byte(`{"intent":"LED_ON"}`)); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case m := <-received:
		if m.topic != "vesta/event/action_ack" || m.payload != `{"intent":"LED_ON"}` {
			t.Errorf("received %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}

	if err := sub.Unsubscribe(Topics{}.Event("action_ack")); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	sub.subMu.RLock()
	remaining := len(sub.subscriptions)
	sub.subMu.RUnlock()
	if remaining != 0 {
		t.Errorf("subscriptions = %d after Unsubscribe, want 0", remaining)
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	client := connectOrSkip(t, "vesta-test-panic")

	topic := Topics{}.Event("panic_test")
	called := make(chan struct{}, 1)
	err := client.Subscribe(topic, func(string, []byte) error {
		called <- struct{}{}
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := client.PublishEvent("panic_test", []byte("x")); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	if !client.IsConnected() {
		t.Error("client disconnected after handler panic")
	}
}
