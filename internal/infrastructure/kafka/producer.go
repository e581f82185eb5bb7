// Package kafka publishes Vesta's records to a Kafka topic for downstream
// analytics. It wraps segmentio/kafka-go's Writer.
package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
)

const (
	defaultWriteTimeout = 5 * time.Second

	// batchTimeout caps the wait for a batch to fill. Send writes one
	// message per call.
	batchTimeout = 5 * time.Millisecond
)

// messageWriter mirrors the subset of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes keyed messages to a single topic.
//
// Thread Safety: safe for concurrent use; kafka.Writer serialises batches internally.
type Producer struct {
	writer  messageWriter
	topic   string
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// Connect builds a producer for cfg.Topic. kafka-go dials lazily, so broker
// problems surface on the first Send rather than here.
func Connect(cfg config.KafkaConfig) (*Producer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}

	timeout := time.Duration(cfg.WriteTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, cfg.Topic, timeout), nil
}

func newProducer(w messageWriter, topic string, timeout time.Duration) *Producer {
	return &Producer{writer: w, topic: topic, timeout: timeout}
}

// Topic returns the destination topic.
func (p *Producer) Topic() string {
	return p.topic
}

// Send writes one message and waits for the leader's acknowledgement.
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{Key: key, Value: value, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Close flushes and closes the underlying writer. Safe to call twice.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}
	return nil
}
