package intent

import (
	"sync"
	"time"
)

// Session is the voice activation state. It starts inactive and is never
// persisted.
type Session struct {
	mu           sync.RWMutex
	active       bool
	lastActivity time.Time
}

// Active reports whether voice commands are accepted.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// LastActivity returns the time of the last wake, sleep or accepted command.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) set(active bool, at time.Time) {
	s.mu.Lock()
	s.active = active
	s.lastActivity = at
	s.mu.Unlock()
}

func (s *Session) touch(at time.Time) {
	s.mu.Lock()
	s.lastActivity = at
	s.mu.Unlock()
}
