package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/queue"
)

// DefaultPollInterval is how long the consumer waits for a command before
// re-checking for cancellation.
const DefaultPollInterval = 200 * time.Millisecond

// Sender writes one command line to the device.
type Sender interface {
	Send(ctx context.Context, line string) error
}

// Logger defines the logging interface used by the Dispatcher.
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

// Options configures a Dispatcher.
type Options struct {
	// Store receives commands that could not be sent. Required.
	Store *device.Store

	// Sender is the device link. Nil means every command is applied locally.
	Sender Sender

	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration

	Logger Logger
}

// Stats counts dispatch outcomes.
type Stats struct {
	Sent         uint64 `json:"sent"`
	LocalApplied uint64 `json:"local_applied"`
	SendFailures uint64 `json:"send_failures"`
	Pending      int    `json:"pending"`
}

// Dispatcher is the single consumer of the command queue and the only
// writer to the device link.
//
// Producers call Enqueue from any goroutine; it never blocks.
type Dispatcher struct {
	queue  *queue.FIFO[device.Command]
	store  *device.Store
	poll   time.Duration
	logger Logger

	senderMu sync.RWMutex
	sender   Sender

	sent         atomic.Uint64
	localApplied atomic.Uint64
	sendFailures atomic.Uint64
}

// New creates a Dispatcher. It panics if opts.Store is nil.
func New(opts Options) *Dispatcher {
	if opts.Store == nil {
		panic("dispatch: store is required")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	return &Dispatcher{
		queue:  queue.New[device.Command](),
		store:  opts.Store,
		poll:   poll,
		logger: logger,
		sender: opts.Sender,
	}
}

// SetSender attaches or detaches (nil) the device link.
func (d *Dispatcher) SetSender(s Sender) {
	d.senderMu.Lock()
	d.sender = s
	d.senderMu.Unlock()
}

// Enqueue adds cmd to the back of the queue.
func (d *Dispatcher) Enqueue(cmd device.Command) {
	d.queue.Enqueue(cmd)
}

// Pending returns the number of queued commands.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Run drains the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "poll_interval", d.poll)
	defer d.logger.Info("dispatcher stopped", "pending", d.queue.Len())

	for {
		if ctx.Err() != nil {
			return
		}
		cmd, ok := d.queue.Dequeue(ctx, d.poll)
		if !ok {
			continue
		}
		d.dispatch(ctx, cmd)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd device.Command) {
	d.senderMu.RLock()
	sender := d.sender
	d.senderMu.RUnlock()

	if sender != nil {
		err := sender.Send(ctx, string(cmd))
		if err == nil {
			d.sent.Add(1)
			d.logger.Debug("command sent", "command", string(cmd))
			return
		}
		d.sendFailures.Add(1)
		d.logger.Warn("command send failed, applying locally", "command", string(cmd), "error", err)
	}

	if _, ok := d.store.ApplyCommand(cmd); ok {
		d.localApplied.Add(1)
		d.logger.Debug("command applied locally", "command", string(cmd))
	}
}

// Stats returns a snapshot of dispatch counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:         d.sent.Load(),
		LocalApplied: d.localApplied.Load(),
		SendFailures: d.sendFailures.Load(),
		Pending:      d.queue.Len(),
	}
}
