package learning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/vesta-core/internal/queue"
)

// DefaultPollInterval is how long the trainer waits for a sample before
// checking for shutdown.
const DefaultPollInterval = 500 * time.Millisecond

// persistTimeout bounds a single sample write.
const persistTimeout = 2 * time.Second

// Logger defines the logging interface used by the Brain.
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

// Options configures a Brain.
type Options struct {
	// Samples persists training samples. Nil keeps models in memory only.
	Samples      SampleStore
	PollInterval time.Duration
	Logger       Logger
}

// Stats reports trainer activity.
type Stats struct {
	Pending  int    `json:"pending"`
	Trained  uint64 `json:"trained"`
	Replayed uint64 `json:"replayed"`
	Failed   uint64 `json:"failed"`
}

// Brain owns the fan regressor and the intent classifier.
//
// Training calls only enqueue; a single trainer goroutine applies samples
// in order. Predictions read the models under a shared lock and never wait
// for the queue.
type Brain struct {
	samples SampleStore
	poll    time.Duration
	logger  Logger

	mu  sync.RWMutex
	reg *regressor
	clf *classifier

	queue *queue.FIFO[Sample]

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool

	trained  atomic.Uint64
	replayed atomic.Uint64
	failed   atomic.Uint64
}

// NewBrain creates a Brain with bootstrapped models.
func NewBrain(opts Options) *Brain {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Brain{
		samples: opts.Samples,
		poll:    opts.PollInterval,
		logger:  opts.Logger,
		reg:     newRegressor(),
		clf:     newClassifier(),
		queue:   queue.New[Sample](),
	}
}

// SetLogger sets the logger for the brain.
func (b *Brain) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Start replays stored samples and launches the trainer. Calling Start more
// than once has no effect.
func (b *Brain) Start(ctx context.Context) error {
	if b.stopped.Load() {
		return ErrStopped
	}
	if !b.started.CompareAndSwap(false, true) {
		return nil
	}

	if b.samples != nil {
		stored, err := b.samples.Load(ctx)
		if err != nil {
			b.started.Store(false)
			return fmt.Errorf("loading training samples: %w", err)
		}
		b.mu.Lock()
		for _, s := range stored {
			if b.learn(s) {
				b.replayed.Add(1)
			}
		}
		b.mu.Unlock()
		if len(stored) > 0 {
			b.logger.Info("training samples replayed", "count", len(stored))
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.wg.Add(1)
	go b.trainLoop(runCtx)

	b.logger.Info("trainer started", "poll_interval", b.poll.String())
	return nil
}

// Stop halts the trainer and applies any samples still queued.
func (b *Brain) Stop() {
	if !b.stopped.CompareAndSwap(false, true) {
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()

	drained := 0
	for {
		s, ok := b.queue.TryDequeue()
		if !ok {
			break
		}
		b.train(context.Background(), s)
		drained++
	}
	b.logger.Info("trainer stopped", "drained", drained, "trained", b.trained.Load())
}

// TrainRegressor implements Hooks.
func (b *Brain) TrainRegressor(temp, hum float64, ledOn, motion bool, fan int) error {
	if math.IsNaN(temp) || math.IsNaN(hum) || math.IsInf(temp, 0) || math.IsInf(hum, 0) {
		return fmt.Errorf("%w: non-finite reading", ErrInvalidSample)
	}
	return b.offer(Sample{
		Kind:   SampleFan,
		Temp:   temp,
		Hum:    hum,
		LEDOn:  ledOn,
		Motion: motion,
		Fan:    fan,
	})
}

// TrainClassifier implements Hooks.
func (b *Brain) TrainClassifier(text, label string) error {
	text, label = strings.TrimSpace(text), strings.TrimSpace(label)
	if text == "" || label == "" {
		return fmt.Errorf("%w: text and label are required", ErrInvalidSample)
	}
	return b.offer(Sample{Kind: SampleIntent, Text: text, Label: label})
}

// PredictFan implements Predictor. The result is in 0..255.
func (b *Brain) PredictFan(temp, hum float64, ledOn, motion bool) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reg.predict(features(temp, hum, ledOn, motion))
}

// PredictIntent implements Predictor. It reports false when the text holds
// no known words.
func (b *Brain) PredictIntent(text string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clf.predict(text)
}

// Stats returns trainer counters.
func (b *Brain) Stats() Stats {
	return Stats{
		Pending:  b.queue.Len(),
		Trained:  b.trained.Load(),
		Replayed: b.replayed.Load(),
		Failed:   b.failed.Load(),
	}
}

func (b *Brain) offer(s Sample) error {
	if b.stopped.Load() {
		return ErrStopped
	}
	s.CreatedAt = time.Now()
	b.queue.Enqueue(s)
	return nil
}

func (b *Brain) trainLoop(ctx context.Context) {
	defer b.wg.Done()
	for ctx.Err() == nil {
		if s, ok := b.queue.Dequeue(ctx, b.poll); ok {
			b.train(ctx, s)
		}
	}
}

// train applies one sample and persists it.
func (b *Brain) train(ctx context.Context, s Sample) {
	b.mu.Lock()
	ok := b.learn(s)
	b.mu.Unlock()
	if !ok {
		b.failed.Add(1)
		b.logger.Warn("unknown training sample", "kind", string(s.Kind))
		return
	}
	b.trained.Add(1)
	b.logger.Debug("trained", "kind", string(s.Kind), "label", s.Label, "fan", s.Fan)

	if b.samples == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	saveCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := b.samples.Save(saveCtx, s); err != nil {
		b.logger.Warn("persisting training sample failed", "kind", string(s.Kind), "error", err)
	}
}

// learn updates a model. Callers hold b.mu.
func (b *Brain) learn(s Sample) bool {
	switch s.Kind {
	case SampleFan:
		b.reg.learn(features(s.Temp, s.Hum, s.LEDOn, s.Motion), float64(s.Fan))
	case SampleIntent:
		b.clf.learn(s.Text, s.Label)
	default:
		return false
	}
	return true
}
