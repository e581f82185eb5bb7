package coordinator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/dispatch"
	"github.com/nerrad567/vesta-core/internal/intent"
	"github.com/nerrad567/vesta-core/internal/records"
	"github.com/nerrad567/vesta-core/internal/simulator"
)

// pipePort feeds reads from an io.Pipe and captures writes.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

func (p *pipePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.r.Close()
}

func (p *pipePort) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

type memorySink struct {
	mu      sync.Mutex
	entries []records.Entry
}

func (s *memorySink) Write(_ context.Context, e records.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memorySink) count(kind records.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Record.Kind() == kind {
			n++
		}
	}
	return n
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

func newCoordinator(t *testing.T, port *pipePort, interval time.Duration) (*Coordinator, *device.Store, *dispatch.Dispatcher, *memorySink) {
	t.Helper()
	store := device.NewStore()
	d := dispatch.New(dispatch.Options{Store: store, PollInterval: 10 * time.Millisecond})
	sink := &memorySink{}

	opts := Options{
		Store:      store,
		Dispatcher: d,
		Simulator:  simulator.Options{Interval: interval},
		Recorder:   records.NewRecorder(sink),
	}
	if port != nil {
		opts.Port = port
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c, store, d, sink
}

func TestNew_RequiresDependencies(t *testing.T) {
	store := device.NewStore()
	tests := []struct {
		name string
		opts Options
	}{
		{"no store", Options{Dispatcher: dispatch.New(dispatch.Options{Store: store})}},
		{"no dispatcher", Options{Store: store}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("New() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestStart_Lifecycle(t *testing.T) {
	c, _, _, _ := newCoordinator(t, nil, time.Hour)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	if !c.IsConnected() {
		t.Error("simulator source should report connected")
	}

	c.Stop()
	c.Stop()
	if err := c.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
	if c.IsConnected() {
		t.Error("stopped coordinator should report disconnected")
	}
}

func TestSimulator_RecordsFrames(t *testing.T) {
	c, store, _, sink := newCoordinator(t, nil, 10*time.Millisecond)
	if c.Source() != SourceSimulator {
		t.Fatalf("Source() = %q, want simulator", c.Source())
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, func() bool { return sink.count(records.KindSensor) >= 2 })
	c.Stop()

	if !store.Snapshot().HasClimate() {
		t.Error("simulated frames should set temperature and humidity")
	}
	if got := c.Stats().Frames; got != uint64(sink.count(records.KindSensor)) {
		t.Errorf("Stats().Frames = %d, want %d", got, sink.count(records.KindSensor))
	}
}

func TestDevice_FramesAndCommands(t *testing.T) {
	port := newPipePort()
	c, store, d, sink := newCoordinator(t, port, time.Hour)
	if c.Source() != SourceDevice {
		t.Fatalf("Source() = %q, want device", c.Source())
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	go port.w.Write([]byte(`{bad json}{"temp":21.5}`)) //nolint:errcheck // test feed

	waitFor(t, func() bool { return sink.count(records.KindSensor) == 1 })
	st := store.Snapshot()
	if st.Temperature == nil || *st.Temperature != 21.5 {
		t.Errorf("temperature = %v, want 21.5", st.Temperature)
	}
	if stats := c.Stats(); stats.Link == nil || stats.Link.FramesInvalid != 1 {
		t.Errorf("link stats = %+v, want one invalid frame", stats.Link)
	}

	d.Enqueue(device.LEDOn)
	waitFor(t, func() bool { return strings.Contains(port.output(), "LED_ON\n") })
	if d.Stats().LocalApplied != 0 {
		t.Error("command sent to the device should not be applied locally")
	}
}

func TestDevice_StopUnblocksReader(t *testing.T) {
	port := newPipePort()
	c, _, _, _ := newCoordinator(t, port, time.Hour)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}
	if c.HealthCheck(context.Background()) == nil {
		t.Error("HealthCheck() should fail after the link closes")
	}
}

func TestDevice_LinkDownFallsBackToLocal(t *testing.T) {
	port := newPipePort()
	c, store, d, _ := newCoordinator(t, port, time.Hour)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	port.w.Close() // EOF ends the reader
	waitFor(t, func() bool { return !c.IsConnected() })

	d.Enqueue(device.FanPWM(90))
	waitFor(t, func() bool { return store.Snapshot().FanSpeed == 90 })
}

// A manual fan set from the dashboard survives simulated ticks until the
// channel is returned to auto.
func TestDashboardOverridesSimulatedFan(t *testing.T) {
	c, store, d, sink := newCoordinator(t, nil, time.Hour)
	resolver, err := intent.NewResolver(intent.Options{
		Store:    store,
		Queue:    d,
		Recorder: records.NewRecorder(sink),
	})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx := context.Background()

	// The simulator emits its first frame on start.
	waitFor(t, func() bool { return sink.count(records.KindSensor) == 1 })

	resolver.Resolve(ctx, intent.Event{Intent: "FAN_PWM:150", Source: intent.SourceDashboard})
	waitFor(t, func() bool { return d.Stats().LocalApplied == 1 })

	st := store.Snapshot()
	if st.FanSpeed != 150 || st.FanMode != device.ModeManual {
		t.Fatalf("after command: fan = %d/%s, want 150/manual", st.FanSpeed, st.FanMode)
	}

	c.sim.Tick()
	if st := store.Snapshot(); st.FanSpeed != 150 {
		t.Errorf("after manual tick: fan = %d, want 150", st.FanSpeed)
	}

	resolver.Resolve(ctx, intent.Event{Intent: intent.FanAuto, Source: intent.SourceDashboard})
	waitFor(t, func() bool { return d.Stats().LocalApplied == 2 })

	frame := c.sim.Tick()
	st = store.Snapshot()
	if st.FanMode != device.ModeAuto {
		t.Fatalf("fan mode = %s, want auto", st.FanMode)
	}
	want := simulator.DiscomfortPWM(*frame.Temperature, *frame.Humidity)
	if st.FanSpeed != want {
		t.Errorf("after auto tick: fan = %d, want %d", st.FanSpeed, want)
	}
	if sink.count(records.KindSensor) != 3 || sink.count(records.KindAction) != 2 {
		t.Errorf("records: sensor=%d action=%d, want 3 and 2",
			sink.count(records.KindSensor), sink.count(records.KindAction))
	}
}
