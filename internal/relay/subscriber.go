package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nerrad567/vesta-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vesta-core/internal/intent"
)

// ErrInvalidMessage is returned for inbound messages that cannot be used.
var ErrInvalidMessage = errors.New("relay: invalid message")

// handleTimeout bounds the side effects of one inbound message.
const handleTimeout = 5 * time.Second

// Resolver applies intents.
type Resolver interface {
	Resolve(ctx context.Context, ev intent.Event) intent.Result
}

// Interpreter maps raw transcripts to intents.
type Interpreter interface {
	Interpret(transcript string) (intent.Event, bool)
}

// MQTTSubscriber is the subset of the MQTT client used for inbound messages.
type MQTTSubscriber interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// intentMessage is the payload of vesta/intent.
type intentMessage struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// transcriptMessage is the JSON form of vesta/voice/transcript. A plain
// text payload is accepted too.
type transcriptMessage struct {
	Text string `json:"text"`
}

// SubscriberStats reports inbound activity.
type SubscriberStats struct {
	Intents     uint64 `json:"intents"`
	Transcripts uint64 `json:"transcripts"`
	Ignored     uint64 `json:"ignored"`
	Rejected    uint64 `json:"rejected"`
}

// Subscriber feeds intents and transcripts arriving over MQTT into the
// resolver. External speech recognisers publish here.
type Subscriber struct {
	resolver    Resolver
	interpreter Interpreter
	logger      Logger
	topics      mqtt.Topics

	intents     atomic.Uint64
	transcripts atomic.Uint64
	ignored     atomic.Uint64
	rejected    atomic.Uint64
}

// NewSubscriber creates a Subscriber. interp may be nil, in which case
// transcripts are rejected.
func NewSubscriber(resolver Resolver, interp Interpreter, logger Logger) *Subscriber {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Subscriber{resolver: resolver, interpreter: interp, logger: logger}
}

// Attach subscribes to the intent and transcript topics.
func (s *Subscriber) Attach(client MQTTSubscriber) error {
	if err := client.Subscribe(s.topics.Intent(), s.HandleIntent); err != nil {
		return fmt.Errorf("subscribing to intents: %w", err)
	}
	if err := client.Subscribe(s.topics.Transcript(), s.HandleTranscript); err != nil {
		_ = client.Unsubscribe(s.topics.Intent())
		return fmt.Errorf("subscribing to transcripts: %w", err)
	}
	s.logger.Info("mqtt ingestion attached",
		"intent_topic", s.topics.Intent(),
		"transcript_topic", s.topics.Transcript())
	return nil
}

// Detach stops ingestion so no intent reaches the resolver during shutdown.
func (s *Subscriber) Detach(client MQTTSubscriber) error {
	if err := client.Unsubscribe(s.topics.Intent(), s.topics.Transcript()); err != nil {
		return fmt.Errorf("detaching mqtt ingestion: %w", err)
	}
	s.logger.Info("mqtt ingestion detached")
	return nil
}

// HandleIntent resolves a labelled intent message. A missing source means
// voice.
func (s *Subscriber) HandleIntent(topic string, payload []byte) error {
	var msg intentMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.rejected.Add(1)
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(msg.Intent) == "" {
		s.rejected.Add(1)
		return fmt.Errorf("%w: intent is required", ErrInvalidMessage)
	}

	src := intent.SourceVoice
	if msg.Source != "" {
		parsed, ok := intent.ParseSource(msg.Source)
		if !ok {
			s.rejected.Add(1)
			return fmt.Errorf("%w: unknown source %q", ErrInvalidMessage, msg.Source)
		}
		src = parsed
	}

	s.intents.Add(1)
	res := s.resolve(intent.Event{Intent: msg.Intent, Text: msg.Text, Source: src})
	s.logger.Debug("mqtt intent resolved", "topic", topic, "intent", msg.Intent, "outcome", string(res.Outcome))
	return nil
}

// HandleTranscript interprets a raw transcript and resolves the result.
func (s *Subscriber) HandleTranscript(topic string, payload []byte) error {
	if s.interpreter == nil {
		s.rejected.Add(1)
		return fmt.Errorf("%w: no interpreter configured", ErrInvalidMessage)
	}

	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var msg transcriptMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.rejected.Add(1)
			return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		text = msg.Text
	}

	s.transcripts.Add(1)
	ev, ok := s.interpreter.Interpret(text)
	if !ok {
		s.ignored.Add(1)
		return nil
	}
	res := s.resolve(ev)
	s.logger.Debug("mqtt transcript resolved", "topic", topic, "intent", ev.Intent, "outcome", string(res.Outcome))
	return nil
}

// Stats returns inbound counters.
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Intents:     s.intents.Load(),
		Transcripts: s.transcripts.Load(),
		Ignored:     s.ignored.Load(),
		Rejected:    s.rejected.Load(),
	}
}

func (s *Subscriber) resolve(ev intent.Event) intent.Result {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	return s.resolver.Resolve(ctx, ev)
}
