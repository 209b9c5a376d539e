package server

import (
	"sync"
	"time"
)

// Session records whether the server API rejected our credentials. The
// gateway's session-expiry callback feeds it; the front end reads it to
// redirect to login and back to the saved route.
type Session struct {
	mu        sync.RWMutex
	expired   bool
	route     string
	expiredAt time.Time
}

// SessionState is the JSON view of a Session
type SessionState struct {
	Expired   bool       `json:"expired"`
	Route     string     `json:"route,omitempty"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// NewSession creates a valid session
func NewSession() *Session {
	return &Session{}
}

// Expire marks the session expired, remembering the route to return to
func (s *Session) Expire(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
	s.route = route
	s.expiredAt = time.Now()
}

// Clear marks the session valid again
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = false
	s.route = ""
	s.expiredAt = time.Time{}
}

// State returns the current state
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := SessionState{Expired: s.expired, Route: s.route}
	if s.expired {
		at := s.expiredAt
		state.ExpiredAt = &at
	}
	return state
}
