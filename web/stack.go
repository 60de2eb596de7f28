// Package web carries the HTTP edge: request tracking, error reporting,
// CSRF tokens, the route table and the server that exposes it.
package web

import (
	"net/http"
	"sync"

	"github.com/marciopocebon/bolt-1/access"
)

// RequestStack tracks the requests currently being handled, newest on
// top. Services that need the active request read Current.
type RequestStack struct {
	mu       sync.RWMutex
	requests []*http.Request
}

var _ access.RequestSource = (*RequestStack)(nil)

// NewRequestStack returns an empty stack.
func NewRequestStack() *RequestStack {
	return &RequestStack{}
}

// Push puts req on top of the stack.
func (s *RequestStack) Push(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

// Pop removes and returns the top request, nil when empty.
func (s *RequestStack) Pop() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	top := s.requests[len(s.requests)-1]
	s.requests = s.requests[:len(s.requests)-1]
	return top
}

// Current returns the top request without removing it, nil when no
// request is in flight.
func (s *RequestStack) Current() *http.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// Depth returns how many requests are in flight.
func (s *RequestStack) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}
