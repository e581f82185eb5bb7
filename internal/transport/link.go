package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
)

// readChunkSize is the size of each blocking read from the port.
const readChunkSize = 512

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// FrameHandler receives each decoded frame on the reader goroutine, in
// arrival order.
type FrameHandler func(device.Frame)

// LinkOptions configures a Link.
type LinkOptions struct {
	// BufferLimit bounds the extractor buffer. Default: DefaultBufferLimit.
	BufferLimit int

	// OnFrame is called for every non-empty decoded frame.
	OnFrame FrameHandler

	Logger Logger
}

// Stats holds link statistics.
type Stats struct {
	FramesRx      uint64    `json:"frames_rx"`
	FramesInvalid uint64    `json:"frames_invalid"`
	CommandsTx    uint64    `json:"commands_tx"`
	ErrorsTotal   uint64    `json:"errors_total"`
	LastActivity  time.Time `json:"last_activity"`
	Connected     bool      `json:"connected"`
}

// Link owns a Port: one goroutine reads and extracts frames, and Send writes
// newline-terminated commands.
//
// Thread Safety:
//   - Send is safe for concurrent use; writes are serialised.
//   - OnFrame is invoked only from the reader goroutine.
//
// The reader exits when the port reports EOF or a hard error. After that,
// Send returns ErrNotConnected; there is no reconnection.
type Link struct {
	port      Port
	extractor *Extractor
	onFrame   FrameHandler

	writeMu   sync.Mutex
	connected atomic.Bool
	started   atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	framesRx      atomic.Uint64
	framesInvalid atomic.Uint64
	commandsTx    atomic.Uint64
	errorsTotal   atomic.Uint64
	lastActivity  atomic.Int64
}

// NewLink wraps an open port. Call Start to begin reading.
func NewLink(port Port, opts LinkOptions) *Link {
	l := &Link{
		port:      port,
		extractor: NewExtractor(opts.BufferLimit),
		onFrame:   opts.OnFrame,
		done:      make(chan struct{}),
		logger:    opts.Logger,
	}
	l.connected.Store(true)
	return l
}

// Start launches the reader goroutine. Subsequent calls are no-ops.
func (l *Link) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.receiveLoop()
	l.logInfo("device link started")
}

// receiveLoop reads chunks until the link is closed or the port fails.
func (l *Link) receiveLoop() {
	defer l.wg.Done()
	defer l.connected.Store(false)

	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		n, err := l.port.Read(buf)
		if n > 0 {
			l.lastActivity.Store(time.Now().Unix())
			l.handleChunk(buf[:n])
		}
		if err != nil {
			if l.isClosed() {
				return
			}
			if errors.Is(err, io.EOF) {
				l.logInfo("device link reached EOF")
			} else {
				l.logError("device read failed", err)
				l.errorsTotal.Add(1)
			}
			return
		}
	}
}

func (l *Link) handleChunk(chunk []byte) {
	for _, raw := range l.extractor.Feed(chunk) {
		frame, err := device.DecodeFrame(raw)
		if err != nil {
			l.framesInvalid.Add(1)
			l.logWarn("dropping malformed frame", "frame", string(raw), "error", err)
			continue
		}
		if frame.Empty() {
			continue
		}
		l.framesRx.Add(1)
		if l.onFrame != nil {
			l.onFrame(frame)
		}
	}
}

// Send writes line followed by '\n'.
func (l *Link) Send(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if !l.IsConnected() {
		return ErrNotConnected
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if _, err := l.port.Write([]byte(line + "\n")); err != nil {
		l.errorsTotal.Add(1)
		return fmt.Errorf("%w: write: %w", ErrSendFailed, err)
	}

	l.commandsTx.Add(1)
	l.lastActivity.Store(time.Now().Unix())
	return nil
}

// Close stops the reader and closes the port. Safe to call multiple times.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		l.connected.Store(false)
		err = l.port.Close()
		l.wg.Wait()
		l.logInfo("device link closed")
	})
	return err
}

// IsConnected reports whether the reader is still attached to the port.
func (l *Link) IsConnected() bool {
	return l.connected.Load()
}

// HealthCheck returns ErrNotConnected once the link is down.
func (l *Link) HealthCheck(_ context.Context) error {
	if !l.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Stats returns current link statistics.
func (l *Link) Stats() Stats {
	var last time.Time
	if ts := l.lastActivity.Load(); ts > 0 {
		last = time.Unix(ts, 0)
	}
	return Stats{
		FramesRx:      l.framesRx.Load(),
		FramesInvalid: l.framesInvalid.Load(),
		CommandsTx:    l.commandsTx.Load(),
		ErrorsTotal:   l.errorsTotal.Load(),
		LastActivity:  last,
		Connected:     l.IsConnected(),
	}
}

// SetLogger sets the logger for this link.
func (l *Link) SetLogger(logger Logger) {
	l.loggerMu.Lock()
	l.logger = logger
	l.loggerMu.Unlock()
}

func (l *Link) isClosed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *Link) getLogger() Logger {
	l.loggerMu.RLock()
	defer l.loggerMu.RUnlock()
	return l.logger
}

func (l *Link) logInfo(msg string, keysAndValues ...any) {
	if logger := l.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (l *Link) logWarn(msg string, keysAndValues ...any) {
	if logger := l.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (l *Link) logError(msg string, err error) {
	if logger := l.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}
