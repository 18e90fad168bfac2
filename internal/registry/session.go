package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session is an opaque handle to an authenticated portal session. The concrete
// client owns the transport state (cookies, tokens); the handle only tracks
// identity and age so the manager can replace it wholesale.
type Session struct {
	ID            string
	EstablishedAt time.Time
}

// Authenticator establishes a fresh portal session.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Session, error)
}

// SessionManager is an explicit single-slot session cache: Ensure creates the
// session if absent, Invalidate drops it so the next Ensure re-authenticates.
// The mutex is held across authentication so concurrent callers never race
// into duplicate logins.
type SessionManager struct {
	mu      sync.Mutex
	auth    Authenticator
	current *Session
}

// NewSessionManager builds a manager around the given authenticator.
func NewSessionManager(auth Authenticator) *SessionManager {
	return &SessionManager{auth: auth}
}

// Ensure returns the current session, authenticating first when none exists.
func (m *SessionManager) Ensure(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	session, err := m.auth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("establish registry session: %w", err)
	}
	m.current = session
	return session, nil
}

// Invalidate drops the current session. The next Ensure re-authenticates.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Current returns the session without authenticating, or nil.
func (m *SessionManager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
