package relay

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/vesta-core/internal/device"
)

// ChannelState carries full device snapshots. Named events use their own
// name as the channel.
const ChannelState = "state"

// Broadcaster delivers a payload to live dashboard clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// MQTTPublisher is the subset of the MQTT client used for outbound messages.
type MQTTPublisher interface {
	PublishState(payload []byte) error
	PublishEvent(name string, payload []byte) error
}

// Logger defines the logging interface used by the relay.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	Hub    Broadcaster
	MQTT   MQTTPublisher
	Logger Logger
}

// PublisherStats reports outbound activity.
type PublisherStats struct {
	States       uint64 `json:"states"`
	Events       uint64 `json:"events"`
	MQTTFailures uint64 `json:"mqtt_failures"`
}

// Publisher fans state snapshots and named events out to the dashboard hub
// and MQTT. It implements device.StatePublisher and intent.EventPublisher.
//
// State is published retained on vesta/state so late subscribers see the
// current snapshot; events go to vesta/event/<name> without retain.
type Publisher struct {
	mu     sync.RWMutex
	hub    Broadcaster
	mqtt   MQTTPublisher
	logger Logger

	states       atomic.Uint64
	events       atomic.Uint64
	mqttFailures atomic.Uint64
}

// NewPublisher creates a Publisher. Either destination may be nil.
func NewPublisher(opts PublisherOptions) *Publisher {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Publisher{
		hub:    opts.Hub,
		mqtt:   opts.MQTT,
		logger: opts.Logger,
	}
}

// SetHub replaces the dashboard destination.
func (p *Publisher) SetHub(hub Broadcaster) {
	p.mu.Lock()
	p.hub = hub
	p.mu.Unlock()
}

// SetMQTT replaces the MQTT destination.
func (p *Publisher) SetMQTT(client MQTTPublisher) {
	p.mu.Lock()
	p.mqtt = client
	p.mu.Unlock()
}

// PublishState implements device.StatePublisher.
func (p *Publisher) PublishState(st device.State) {
	p.states.Add(1)
	p.send(ChannelState, st, func(c MQTTPublisher, data []byte) error {
		return c.PublishState(data)
	})
}

// PublishEvent implements intent.EventPublisher.
func (p *Publisher) PublishEvent(name string, payload any) {
	p.events.Add(1)
	p.send(name, payload, func(c MQTTPublisher, data []byte) error {
		return c.PublishEvent(name, data)
	})
}

// Stats returns outbound counters.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		States:       p.states.Load(),
		Events:       p.events.Load(),
		MQTTFailures: p.mqttFailures.Load(),
	}
}

func (p *Publisher) send(channel string, payload any, publish func(MQTTPublisher, []byte) error) {
	p.mu.RLock()
	hub, client := p.hub, p.mqtt
	p.mu.RUnlock()

	if hub != nil {
		hub.Broadcast(channel, payload)
	}
	if client == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encoding mqtt payload failed", "channel", channel, "error", err)
		return
	}
	if err := publish(client, data); err != nil {
		p.mqttFailures.Add(1)
		p.logger.Warn("mqtt publish failed", "channel", channel, "error", err)
	}
}
