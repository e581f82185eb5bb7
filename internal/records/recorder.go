package records

import (
	"context"
	"sync"
	"time"
)

// Sink is a destination for stamped records.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder stamps records and fans them out to every sink.
//
// Sink failures are logged and never returned; logging must not affect
// control flow. A nil *Recorder discards everything.
type Recorder struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to sinks in order.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{
		sinks:  sinks,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// AddSink appends a sink.
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
}

// Record stamps rec with the current time and writes it to every sink.
func (r *Recorder) Record(ctx context.Context, rec Record) {
	if r == nil || rec == nil {
		return
	}

	r.mu.RLock()
	sinks := r.sinks
	logger := r.logger
	now := r.now
	r.mu.RUnlock()

	entry := Entry{Time: now(), Record: rec}
	for _, s := range sinks {
		if err := s.Write(ctx, entry); err != nil {
			logger.Warn("record write failed", "kind", string(rec.Kind()), "error", err)
		}
	}
}
