package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MessageSender is the subset of the Kafka producer used by KafkaSink.
type MessageSender interface {
	Send(ctx context.Context, key, value []byte) error
}

// streamMessage is the JSON body published for each record.
type streamMessage struct {
	Kind   Kind              `json:"kind"`
	Time   time.Time         `json:"time"`
	ID     string            `json:"id,omitempty"`
	Values map[string]string `json:"values"`
}

// KafkaSink publishes every record as JSON, keyed by kind so each kind
// stays ordered within its partition.
type KafkaSink struct {
	sender MessageSender
}

// NewKafkaSink creates a sink over a producer.
func NewKafkaSink(sender MessageSender) *KafkaSink {
	return &KafkaSink{sender: sender}
}

// Write implements Sink.
func (s *KafkaSink) Write(ctx context.Context, e Entry) error {
	msg := streamMessage{
		Kind:   e.Record.Kind(),
		Time:   e.Time,
		Values: e.Record.Values(),
	}
	if rec, ok := e.Record.(ActionRecord); ok {
		msg.ID = rec.ID
		msg.Values["command"] = rec.Command
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}
	if err := s.sender.Send(ctx, []byte(msg.Kind), body); err != nil {
		return fmt.Errorf("publishing %s record: %w", msg.Kind, err)
	}
	return nil
}
