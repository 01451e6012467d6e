package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ticketbot/pkg"
)

// ErrSessionNotFound is returned when no session exists for a user
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps open sessions keyed by user ID
type SessionStore interface {
	// Insert stores s unless a session for s.UserID already exists. The
	// check and the insert are one atomic step.
	Insert(ctx context.Context, s pkg.Session) (bool, error)
	Get(ctx context.Context, userID string) (pkg.Session, error)
	// Update replaces an existing session; ErrSessionNotFound if absent.
	Update(ctx context.Context, s pkg.Session) error
	Delete(ctx context.Context, userID string) error
	FindByChannel(ctx context.Context, channelID string) (pkg.Session, error)
	Count(ctx context.Context) (int, error)
	// Reset drops every session owned by this store.
	Reset(ctx context.Context) error
	Close() error
}

// MemorySessionStore is the in-process SessionStore
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]pkg.Session
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]pkg.Session),
	}
}

// Insert stores the session if the user has none
func (m *MemorySessionStore) Insert(ctx context.Context, s pkg.Session) (bool, error) {
	if err := ValidateSession(s); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.UserID]; exists {
		return false, nil
	}
	m.sessions[s.UserID] = s
	return true, nil
}

// Get retrieves a session by user ID
func (m *MemorySessionStore) Get(ctx context.Context, userID string) (pkg.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return pkg.Session{}, fmt.Errorf("user %s: %w", userID, ErrSessionNotFound)
	}
	return s, nil
}

// Update replaces an existing session
func (m *MemorySessionStore) Update(ctx context.Context, s pkg.Session) error {
	if err := ValidateSession(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.UserID]; !ok {
		return fmt.Errorf("user %s: %w", s.UserID, ErrSessionNotFound)
	}
	m.sessions[s.UserID] = s
	return nil
}

// Delete removes a session; deleting a missing session is not an error
func (m *MemorySessionStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// FindByChannel returns the session bound to channelID
func (m *MemorySessionStore) FindByChannel(ctx context.Context, channelID string) (pkg.Session, error) {
	if channelID == "" {
		return pkg.Session{}, fmt.Errorf("channel ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.ChannelID == channelID {
			return s, nil
		}
	}
	return pkg.Session{}, fmt.Errorf("channel %s: %w", channelID, ErrSessionNotFound)
}

// Count returns the number of open sessions
func (m *MemorySessionStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Reset drops all sessions
func (m *MemorySessionStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]pkg.Session)
	return nil
}

// Close is a no-op for the in-memory store
func (m *MemorySessionStore) Close() error { return nil }

// ValidateSession checks the fields every stored session needs
func ValidateSession(s pkg.Session) error {
	if s.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	switch s.Kind {
	case pkg.SessionSupport:
		if s.RoleType != "" {
			return fmt.Errorf("support session cannot carry role type %q", s.RoleType)
		}
	case pkg.SessionApplication:
		if !s.RoleType.Valid() {
			return fmt.Errorf("application session has invalid role type %q", s.RoleType)
		}
	default:
		return fmt.Errorf("invalid session kind %q", s.Kind)
	}

	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
