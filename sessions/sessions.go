// Package sessions implements the per-request attribute bag behind the
// "session" service. Access control stores the authentication token in
// it under AuthKey.
package sessions

import (
	"sync"

	"github.com/marciopocebon/bolt-1/random"
)

// AuthKey is the session attribute holding the authentication token.
const AuthKey = "authentication"

// Session is a thread-safe attribute bag with a random identifier.
type Session struct {
	mu      sync.RWMutex
	id      string
	values  map[string]interface{}
	started bool
}

// New creates an unstarted session.
func New() *Session {
	return &Session{values: make(map[string]interface{})}
}

// Start assigns a session ID if none is set yet.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.id = random.MustHex(16)
		s.started = true
	}
}

// ID returns the session identifier, or "" before Start.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// IsStarted reports whether Start has been called.
func (s *Session) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Set stores value under name, starting the session if needed.
func (s *Session) Set(name string, value interface{}) {
	s.Start()
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Get returns the value stored under name.
func (s *Session) Get(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name is set.
func (s *Session) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Remove deletes the value stored under name.
func (s *Session) Remove(name string) {
	s.mu.Lock()
	delete(s.values, name)
	s.mu.Unlock()
}

// Clear removes every attribute but keeps the session ID.
func (s *Session) Clear() {
	s.mu.Lock()
	s.values = make(map[string]interface{})
	s.mu.Unlock()
}

// Invalidate clears all attributes and rotates the session ID.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]interface{})
	if s.started {
		s.id = random.MustHex(16)
	}
}
