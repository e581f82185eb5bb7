package intent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/records"
)

// Default fuzzy thresholds for the resolver's wake and sleep checks.
const (
	DefaultWakeThreshold  = 75.0
	DefaultSleepThreshold = 75.0
)

// CommandQueue accepts commands for the device. Enqueue must not block.
type CommandQueue interface {
	Enqueue(cmd device.Command)
}

// Trainer receives learning samples. Both calls are fire-and-forget; an
// error means the sample was not accepted.
type Trainer interface {
	TrainRegressor(temp, hum float64, ledOn, motion bool, fan int) error
	TrainClassifier(text, label string) error
}

// Logger defines the logging interface used by the Resolver.
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

// Event is one intent to resolve.
type Event struct {
	Intent string `json:"intent"`
	Text   string `json:"text,omitempty"`
	Source Source `json:"source"`
}

// Outcome says which rule handled an event.
type Outcome string

// Resolution outcomes.
const (
	OutcomeWoke         Outcome = "woke"
	OutcomeSlept        Outcome = "slept"
	OutcomeGated        Outcome = "gated"
	OutcomeLogged       Outcome = "logged"
	OutcomeApplied      Outcome = "applied"
	OutcomeForwarded    Outcome = "forwarded"
	OutcomeUnrecognized Outcome = "unrecognized"
)

// Result reports how an event was resolved.
type Result struct {
	Outcome  Outcome        `json:"outcome"`
	Command  device.Command `json:"command,omitempty"`
	ActionID string         `json:"action_id,omitempty"`
	State    device.State   `json:"state"`
}

// Options configures a Resolver.
type Options struct {
	Store    *device.Store // required
	Queue    CommandQueue  // required
	Recorder *records.Recorder
	Trainer  Trainer
	Events   EventPublisher

	WakePhrases    []string
	SleepPhrases   []string
	WakeThreshold  float64
	SleepThreshold float64

	Logger Logger
}

// Resolver turns intents into state transitions, commands and side effects.
//
// Resolve runs synchronously on the caller's goroutine. Calls are
// serialised so each event sees the session and state left by the last.
type Resolver struct {
	store    *device.Store
	queue    CommandQueue
	recorder *records.Recorder
	trainer  Trainer
	events   EventPublisher
	logger   Logger

	wakePhrases    []string
	sleepPhrases   []string
	wakeThreshold  float64
	sleepThreshold float64

	mu      sync.Mutex
	session Session
	now     func() time.Time
}

// NewResolver creates a Resolver. It returns an error if Store or Queue is
// missing.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidOptions)
	}
	if opts.Queue == nil {
		return nil, fmt.Errorf("%w: queue is required", ErrInvalidOptions)
	}

	r := &Resolver{
		store:          opts.Store,
		queue:          opts.Queue,
		recorder:       opts.Recorder,
		trainer:        opts.Trainer,
		events:         opts.Events,
		logger:         opts.Logger,
		wakePhrases:    opts.WakePhrases,
		sleepPhrases:   opts.SleepPhrases,
		wakeThreshold:  opts.WakeThreshold,
		sleepThreshold: opts.SleepThreshold,
		now:            time.Now,
	}
	if r.events == nil {
		r.events = noopPublisher{}
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	if len(r.wakePhrases) == 0 {
		r.wakePhrases = DefaultWakePhrases
	}
	if len(r.sleepPhrases) == 0 {
		r.sleepPhrases = DefaultSleepPhrases
	}
	if r.wakeThreshold <= 0 {
		r.wakeThreshold = DefaultWakeThreshold
	}
	if r.sleepThreshold <= 0 {
		r.sleepThreshold = DefaultSleepThreshold
	}
	return r, nil
}

// Session exposes the voice session for read-only inspection.
func (r *Resolver) Session() *Session {
	return &r.session
}

// VoiceActive reports whether voice commands are currently accepted.
func (r *Resolver) VoiceActive() bool {
	return r.session.Active()
}

// Resolve applies the first matching rule to ev.
func (r *Resolver) Resolve(ctx context.Context, ev Event) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	intent := strings.TrimSpace(ev.Intent)
	if intent == Sleep {
		intent = VoiceSleep
	}
	text := strings.ToLower(strings.TrimSpace(ev.Text))
	now := r.now()
	decision := r.store.Snapshot()

	// Wake.
	if intent == Wake || (intent != VoiceSleep && r.matches(text, r.wakePhrases, r.wakeThreshold)) {
		r.session.set(true, now)
		r.announce(now, msgVoiceActive, Wake)
		r.recordVoice(ctx, text, Wake)
		r.logger.Info("voice activated", "source", string(ev.Source))
		return Result{Outcome: OutcomeWoke, State: decision}
	}

	// Sleep.
	if intent == VoiceSleep || ((r.session.Active() || intent == LogSpeech) && r.matches(text, r.sleepPhrases, r.sleepThreshold)) {
		r.queue.Enqueue(device.LEDAuto)
		r.queue.Enqueue(device.FanAuto)
		st := r.store.Mutate(func(s *device.State) {
			s.LEDMode = device.ModeAuto
			s.FanMode = device.ModeAuto
		})
		r.session.set(false, now)
		r.announce(now, msgVoiceInactive, VoiceSleep)
		r.recordVoice(ctx, text, VoiceSleep)
		r.logger.Info("voice deactivated", "source", string(ev.Source))
		return Result{Outcome: OutcomeSlept, State: st}
	}

	active := r.session.Active()
	voice := ev.Source == SourceVoice

	// Gating.
	if voice && !active {
		r.announce(now, msgWakeFirst, "")
		r.logger.Debug("voice intent ignored while inactive", "intent", intent, "text", text)
		return Result{Outcome: OutcomeGated, State: decision}
	}
	if voice && ev.Text != "" && text != quietAutoText {
		r.announce(now, msgEchoPrefix+strings.TrimSpace(ev.Text), "")
	}
	if voice {
		r.session.touch(now)
	}

	// Plain speech.
	if intent == LogSpeech {
		if active {
			r.announce(now, msgNotACommand, LogSpeech)
		}
		r.recordVoice(ctx, text, LogSpeech)
		return Result{Outcome: OutcomeLogged, State: decision}
	}

	// Device intents.
	if act, ok := r.deviceAction(intent, text, decision); ok {
		return r.apply(ctx, ev, intent, text, act, decision, now)
	}

	if voice {
		r.trainClassifier(ctx, ev, intent, text)
	}

	// Dashboard fallback.
	if ev.Source == SourceDashboard && intent != "" {
		cmd := device.Command(intent)
		r.queue.Enqueue(cmd)
		rec := records.NewActionRecord(string(ev.Source), intent, cmd, decision, decision)
		r.recorder.Record(ctx, rec)
		r.logger.Info("forwarded dashboard command", "command", intent)
		return Result{Outcome: OutcomeForwarded, Command: cmd, ActionID: rec.ID, State: decision}
	}

	// Voice fallback.
	r.logger.Info("unrecognized intent", "intent", intent, "text", ev.Text, "source", string(ev.Source))
	if voice && active {
		r.announce(now, fmt.Sprintf(msgUnknownFmt, ev.Text), "")
	}
	return Result{Outcome: OutcomeUnrecognized, State: decision}
}

// deviceAction describes the effect of a device intent.
type deviceAction struct {
	cmd      device.Command
	local    bool // apply cmd through the local-apply rules
	fan      int
	setsFan  bool
	announce string
}

func (r *Resolver) deviceAction(intent, text string, st device.State) (deviceAction, bool) {
	switch intent {
	case LEDOn:
		return deviceAction{cmd: device.LEDOn, local: true, announce: msgLEDOn}, true
	case LEDOff:
		return deviceAction{cmd: device.LEDOff, local: true, announce: msgLEDOff}, true
	case LEDAuto:
		a := deviceAction{cmd: device.LEDAuto, local: true}
		if text != quietAutoText {
			a.announce = msgLEDAuto
		}
		return a, true
	case FanOn:
		return deviceAction{cmd: device.FanOn, local: true, fan: device.FanMax, setsFan: true, announce: msgFanOn}, true
	case FanOff:
		return deviceAction{cmd: device.FanOff, local: true, fan: device.FanMin, setsFan: true, announce: msgFanOff}, true
	case FanAuto:
		a := deviceAction{cmd: device.FanAuto, local: true}
		if text != quietAutoText {
			a.announce = msgFanAuto
		}
		return a, true
	}

	if strings.HasPrefix(intent, FanPWMPrefix) {
		cmd := device.Command(intent)
		if v, err := cmd.PWM(); err == nil {
			return deviceAction{cmd: device.FanPWM(v), local: true, fan: v, setsFan: true,
				announce: fmt.Sprintf(msgFanSetFmt, v)}, true
		}
		// An unparseable value still goes to the device verbatim; locally
		// the fan only switches to manual.
		return deviceAction{cmd: cmd, fan: st.FanSpeed, setsFan: true,
			announce: fmt.Sprintf(msgFanSetFmt, st.FanSpeed)}, true
	}

	if strings.HasPrefix(intent, QuickPrefix) {
		q, ok := LookupQuickMode(strings.TrimPrefix(intent, QuickPrefix))
		if !ok {
			return deviceAction{}, false
		}
		return deviceAction{cmd: device.FanPWM(q.Fan), local: true, fan: q.Fan, setsFan: true,
			announce: fmt.Sprintf(msgQuickFmt, q.Name)}, true
	}

	return deviceAction{}, false
}

func (r *Resolver) apply(ctx context.Context, ev Event, intent, text string, act deviceAction, decision device.State, now time.Time) Result {
	r.queue.Enqueue(act.cmd)

	var result device.State
	if act.local {
		result, _ = r.store.ApplyCommand(act.cmd)
	} else {
		result = r.store.Mutate(func(s *device.State) { s.FanMode = device.ModeManual })
	}

	if ev.Source == SourceVoice && act.announce != "" {
		r.announce(now, act.announce, intent)
	}

	rec := records.NewActionRecord(string(ev.Source), intent, act.cmd, decision, result)
	r.recorder.Record(ctx, rec)

	if act.setsFan && decision.HasClimate() && r.trainer != nil {
		err := r.trainer.TrainRegressor(*decision.Temperature, *decision.Humidity, decision.LEDOn, decision.Motion, act.fan)
		if err != nil {
			r.logger.Warn("regressor training failed", "error", err)
		}
	}

	if ev.Source == SourceVoice {
		r.trainClassifier(ctx, ev, intent, text)
		r.events.PublishEvent(EventActionAck, ActionAck{
			ID:      rec.ID,
			Source:  ev.Source,
			Intent:  intent,
			Command: string(act.cmd),
			Message: "Voice command: " + string(act.cmd),
		})
	}

	r.logger.Info("intent applied",
		"source", string(ev.Source),
		"intent", intent,
		"command", string(act.cmd))

	return Result{Outcome: OutcomeApplied, Command: act.cmd, ActionID: rec.ID, State: result}
}

// trainClassifier records the utterance and feeds it to the classifier for
// voice intents that carry meaning.
func (r *Resolver) trainClassifier(ctx context.Context, ev Event, intent, text string) {
	if !trainsClassifier(intent) {
		return
	}
	r.recordVoice(ctx, text, intent)
	if r.trainer == nil || strings.TrimSpace(ev.Text) == "" || intent == "" {
		return
	}
	if err := r.trainer.TrainClassifier(strings.TrimSpace(ev.Text), intent); err != nil {
		r.logger.Warn("classifier training failed", "error", err)
	}
}

func (r *Resolver) matches(text string, phrases []string, threshold float64) bool {
	phrase, score, ok := MatchPhrase(text, phrases, threshold)
	if ok {
		r.logger.Debug("phrase matched", "text", text, "phrase", phrase, "score", score)
	}
	return ok
}

func (r *Resolver) announce(now time.Time, text, intent string) {
	r.events.PublishEvent(EventVoiceHeard, VoiceEvent{
		Text:   text,
		Intent: intent,
		Time:   now.Format("15:04:05"),
	})
}

func (r *Resolver) recordVoice(ctx context.Context, text, intent string) {
	r.recorder.Record(ctx, records.VoiceRecord{Text: text, Intent: intent})
}
