package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/dispatch"
	"github.com/nerrad567/vesta-core/internal/records"
	"github.com/nerrad567/vesta-core/internal/simulator"
	"github.com/nerrad567/vesta-core/internal/transport"
)

// Frame sources.
const (
	SourceDevice    = "device"
	SourceSimulator = "simulator"
)

// Logger defines the logging interface used by the Coordinator.
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

// Options configures a Coordinator.
type Options struct {
	Store      *device.Store        // required
	Dispatcher *dispatch.Dispatcher // required

	// Port is an open device port. Nil runs the simulator instead.
	Port        transport.Port
	BufferLimit int

	// Simulator tunes the synthetic trace. Store, OnFrame and Logger are
	// filled in by the coordinator.
	Simulator simulator.Options

	Recorder *records.Recorder
	Logger   Logger
}

// Stats reports frame throughput and the state of each worker.
type Stats struct {
	Source   string           `json:"source"`
	Frames   uint64           `json:"frames"`
	Dispatch dispatch.Stats   `json:"dispatch"`
	Link     *transport.Stats `json:"link,omitempty"`
}

// Coordinator owns the dispatcher goroutine and the frame source.
//
// The link reader and the simulator never run together: the choice is made
// once, from Options.Port.
type Coordinator struct {
	store      *device.Store
	dispatcher *dispatch.Dispatcher
	port       transport.Port
	bufLimit   int
	simOpts    simulator.Options
	recorder   *records.Recorder
	logger     Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	link    *transport.Link
	sim     *simulator.Simulator
	wg      sync.WaitGroup

	frames atomic.Uint64
}

// New creates a Coordinator. Call Start to begin.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: device store is required", ErrInvalidOptions)
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", ErrInvalidOptions)
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	return &Coordinator{
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		port:       opts.Port,
		bufLimit:   opts.BufferLimit,
		simOpts:    opts.Simulator,
		recorder:   opts.Recorder,
		logger:     logger,
	}, nil
}

// Source reports which frame source this coordinator runs.
func (c *Coordinator) Source() string {
	if c.port != nil {
		return SourceDevice
	}
	return SourceSimulator
}

// Start launches the dispatcher and the frame source.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	if c.port != nil {
		c.link = transport.NewLink(c.port, transport.LinkOptions{
			BufferLimit: c.bufLimit,
			OnFrame:     c.handleDeviceFrame,
			Logger:      c.logger,
		})
		c.dispatcher.SetSender(c.link)
		c.link.Start()
	} else {
		opts := c.simOpts
		opts.Store = c.store
		opts.OnFrame = c.recordFrame
		opts.Logger = c.logger
		c.sim = simulator.New(opts)

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.sim.Run(runCtx)
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.dispatcher.Run(runCtx)
	}()

	c.logger.Info("coordinator started", "source", c.Source())
	return nil
}

// Stop cancels the workers, closes the port to unblock a pending read, and
// waits for everything to exit. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel, link := c.cancel, c.link
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if link != nil {
		c.dispatcher.SetSender(nil)
		if err := link.Close(); err != nil {
			c.logger.Warn("closing device port", "error", err)
		}
	}
	c.wg.Wait()
	c.logger.Info("coordinator stopped", "frames", c.frames.Load())
}

// IsConnected reports whether the frame source is live. The simulator is
// always connected.
func (c *Coordinator) IsConnected() bool {
	c.mu.Lock()
	link := c.link
	c.mu.Unlock()
	if link != nil {
		return link.IsConnected()
	}
	return c.started && !c.stopped
}

// HealthCheck fails once the device link has dropped.
func (c *Coordinator) HealthCheck(ctx context.Context) error {
	c.mu.Lock()
	link := c.link
	c.mu.Unlock()
	if link == nil {
		return nil
	}
	if err := link.HealthCheck(ctx); err != nil {
		return fmt.Errorf("device link: %w", err)
	}
	return nil
}

// Stats returns a snapshot of coordinator counters.
func (c *Coordinator) Stats() Stats {
	st := Stats{
		Source:   c.Source(),
		Frames:   c.frames.Load(),
		Dispatch: c.dispatcher.Stats(),
	}
	c.mu.Lock()
	link := c.link
	c.mu.Unlock()
	if link != nil {
		ls := link.Stats()
		st.Link = &ls
	}
	return st
}

// handleDeviceFrame runs on the link reader goroutine.
func (c *Coordinator) handleDeviceFrame(f device.Frame) {
	c.store.ApplyFrame(f)
	c.recordFrame(f)
}

// recordFrame logs a frame that is already reflected in the store.
func (c *Coordinator) recordFrame(f device.Frame) {
	c.frames.Add(1)
	c.recorder.Record(context.Background(), records.SensorRecord{Frame: f})
}
