package learning

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

type memorySamples struct {
	mu      sync.Mutex
	stored  []Sample
	loadErr error
}

func (m *memorySamples) Save(_ context.Context, s Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, s)
	return nil
}

func (m *memorySamples) Load(context.Context) ([]Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]Sample(nil), m.stored...), nil
}

func (m *memorySamples) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBrain_TrainsInBackground(t *testing.T) {
	store := &memorySamples{}
	b := NewBrain(Options{Samples: store, PollInterval: 10 * time.Millisecond})
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()

	for i := 0; i < 3; i++ {
		if err := b.TrainClassifier("blast the air", "FAN_ON"); err != nil {
			t.Fatalf("TrainClassifier() error = %v", err)
		}
	}
	if err := b.TrainRegressor(29, 60, true, true, 220); err != nil {
		t.Fatalf("TrainRegressor() error = %v", err)
	}

	waitFor(t, func() bool { return b.Stats().Trained == 4 })
	waitFor(t, func() bool { return store.count() == 4 })

	if got, ok := b.PredictIntent("blast the air"); !ok || got != "FAN_ON" {
		t.Errorf("PredictIntent() = %q, %v; want FAN_ON", got, ok)
	}
	if fan := b.PredictFan(29, 60, true, true); fan < 0 || fan > 255 {
		t.Errorf("PredictFan() = %d, out of range", fan)
	}
}

func TestBrain_StopDrainsQueue(t *testing.T) {
	b := NewBrain(Options{})

	_ = b.TrainClassifier("blast the air", "FAN_ON")
	_ = b.TrainClassifier("kill the breeze", "FAN_OFF")
	if got := b.Stats().Pending; got != 2 {
		t.Fatalf("Pending = %d, want 2", got)
	}

	b.Stop()

	st := b.Stats()
	if st.Pending != 0 || st.Trained != 2 {
		t.Errorf("stats after Stop = %+v, want everything trained", st)
	}
	if err := b.TrainClassifier("more", "FAN_ON"); !errors.Is(err, ErrStopped) {
		t.Errorf("TrainClassifier() after Stop error = %v, want ErrStopped", err)
	}
	if err := b.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

func TestBrain_ReplaysStoredSamples(t *testing.T) {
	store := &memorySamples{}
	first := NewBrain(Options{Samples: store})
	_ = first.TrainClassifier("kill the breeze", "FAN_OFF")
	first.Stop()

	second := NewBrain(Options{Samples: store, PollInterval: 10 * time.Millisecond})
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer second.Stop()

	if got := second.Stats().Replayed; got != 1 {
		t.Errorf("Replayed = %d, want 1", got)
	}
	if got, ok := second.PredictIntent("kill the breeze"); !ok || got != "FAN_OFF" {
		t.Errorf("PredictIntent() = %q, %v; want FAN_OFF", got, ok)
	}
	if store.count() != 1 {
		t.Errorf("replay should not store samples again, have %d", store.count())
	}
}

func TestBrain_StartLoadError(t *testing.T) {
	b := NewBrain(Options{Samples: &memorySamples{loadErr: errors.New("disk gone")}})
	if err := b.Start(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestBrain_RejectsInvalidSamples(t *testing.T) {
	b := NewBrain(Options{})
	defer b.Stop()

	tests := []struct {
		name string
		err  error
	}{
		{"empty text", b.TrainClassifier("  ", "FAN_ON")},
		{"empty label", b.TrainClassifier("fan on", "")},
		{"nan temp", b.TrainRegressor(math.NaN(), 40, false, false, 0)},
		{"inf hum", b.TrainRegressor(20, math.Inf(1), false, false, 0)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, ErrInvalidSample) {
			t.Errorf("%s: error = %v, want ErrInvalidSample", tt.name, tt.err)
		}
	}
}

func TestNoop(t *testing.T) {
	var n Noop
	if err := n.TrainRegressor(1, 2, true, true, 3); err != nil {
		t.Errorf("TrainRegressor() error = %v", err)
	}
	if _, ok := n.PredictIntent("fan on"); ok {
		t.Error("Noop should not predict")
	}
}

var (
	_ Hooks     = (*Brain)(nil)
	_ Predictor = (*Brain)(nil)
	_ Hooks     = Noop{}
	_ Predictor = Noop{}
)
