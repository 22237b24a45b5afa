// Package auth holds the authenticated session and exposes it as an
// observable: the outer shell switches between the login page and the
// fleet page based on the authentication state. It also serves as the
// user-context service, providing the actor identity stamped onto bulk
// actions.
package auth

import (
	"sync"

	"simfleet/internal/api"
	"simfleet/internal/logging"
)

// Service tracks the current session. Constructed once in main and
// injected wherever the session or actor identity is needed.
type Service struct {
	mu          sync.RWMutex
	session     *api.Session
	subscribers map[int]func(bool)
	nextSubID   int
}

// NewService creates an unauthenticated service.
func NewService() *Service {
	return &Service{
		subscribers: make(map[int]func(bool)),
	}
}

// IsAuthenticated reports whether a session is active.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Actor returns the identity stamped onto bulk actions, or "" when
// unauthenticated.
func (s *Service) Actor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Username
}

// DisplayName returns a human-readable name for the header bar.
func (s *Service) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	if s.session.DisplayName != "" {
		return s.session.DisplayName
	}
	return s.session.Username
}

// SignIn installs a session and notifies subscribers.
func (s *Service) SignIn(session *api.Session) {
	s.mu.Lock()
	s.session = session
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	logging.Session("signed in as %s", session.Username)
	logging.Audit().Record(logging.AuditEvent{
		EventType: logging.AuditSessionStart,
		Actor:     session.Username,
		Success:   true,
	})

	for _, fn := range subs {
		fn(true)
	}
}

// SignOut clears the session and notifies subscribers.
// Safe to call when already signed out.
func (s *Service) SignOut() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	actor := s.session.Username
	s.session = nil
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	logging.Session("signed out %s", actor)
	logging.Audit().Record(logging.AuditEvent{
		EventType: logging.AuditSessionEnd,
		Actor:     actor,
		Success:   true,
	})

	for _, fn := range subs {
		fn(false)
	}
}

// Subscribe registers a callback invoked on every authentication change.
// Returns an unsubscribe function. Callbacks run outside the service lock
// but on the caller's goroutine of SignIn/SignOut.
func (s *Service) Subscribe(fn func(authenticated bool)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// snapshotSubscribers must be called with the lock held.
func (s *Service) snapshotSubscribers() []func(bool) {
	subs := make([]func(bool), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
