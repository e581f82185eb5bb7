package device

import "sync"

// Logger defines the logging interface used by the Store.
// This allows injecting different logger implementations for testing.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StatePublisher receives a snapshot after every state change.
//
// PublishState is called in mutation order and must not call back into the
// Store's mutating methods.
type StatePublisher interface {
	PublishState(State)
}

// Store owns the single DeviceState shared by all components.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Snapshots are deep copies; callers may keep them.
type Store struct {
	mu    sync.RWMutex
	state State

	// pubMu serialises publishing so observers see snapshots in the order
	// the mutations happened.
	pubMu     sync.Mutex
	publisher StatePublisher
	logger    Logger
}

// NewStore creates a Store holding InitialState.
func NewStore() *Store {
	return &Store{
		state:  InitialState(),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.pubMu.Lock()
	s.logger = logger
	s.pubMu.Unlock()
}

// SetPublisher sets the observer notified after each mutation. Nil disables
// publishing.
func (s *Store) SetPublisher(p StatePublisher) {
	s.pubMu.Lock()
	s.publisher = p
	s.pubMu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Mutate runs fn under the store lock, publishes the result and returns it.
// The fan speed is re-clamped after fn runs.
func (s *Store) Mutate(fn func(*State)) State {
	s.mu.Lock()
	fn(&s.state)
	s.state.FanSpeed = ClampFan(s.state.FanSpeed)
	snap := s.state.Clone()
	s.pubMu.Lock()
	s.mu.Unlock()

	s.publishLocked(snap)
	s.pubMu.Unlock()
	return snap
}

// ApplyFrame merges a sensor frame. Nothing is published when the frame
// changes no field.
func (s *Store) ApplyFrame(f Frame) (State, bool) {
	return s.mutateIf(func(st *State) bool { return st.ApplyFrame(f) })
}

// ApplyCommand applies a command locally, as the device would have.
// Unknown commands are logged and ignored.
func (s *Store) ApplyCommand(c Command) (State, bool) {
	snap, ok := s.mutateIf(func(st *State) bool { return st.ApplyCommand(c) })
	if !ok {
		s.pubMu.Lock()
		logger := s.logger
		s.pubMu.Unlock()
		logger.Warn("ignoring unknown command", "command", string(c))
	}
	return snap, ok
}

func (s *Store) mutateIf(fn func(*State) bool) (State, bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, false
	}
	snap := s.state.Clone()
	s.pubMu.Lock()
	s.mu.Unlock()

	s.publishLocked(snap)
	s.pubMu.Unlock()
	return snap, true
}

// publishLocked must be called with pubMu held.
func (s *Store) publishLocked(snap State) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishState(snap.Clone())
}
