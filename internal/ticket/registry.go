package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/internal/storage"
	"ticketbot/pkg"
)

// Registry tracks the open session of every user. A user has at most one
// session, support or application, at any time.
type Registry struct {
	store storage.SessionStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewRegistry creates a registry over store
func NewRegistry(store storage.SessionStore, log zerolog.Logger) *Registry {
	return &Registry{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// TryOpen reserves the session slot of s.UserID. It returns
// core.ErrDuplicateSession if the user already has one. The channel is bound
// later with Attach.
func (r *Registry) TryOpen(ctx context.Context, s pkg.Session) error {
	if s.OpenedAt.IsZero() {
		s.OpenedAt = r.now().UTC()
	}

	ok, err := r.store.Insert(ctx, s)
	if err != nil {
		return fmt.Errorf("open session for %s: %w", s.UserID, err)
	}
	if !ok {
		return fmt.Errorf("open session for %s: %w", s.UserID, core.ErrDuplicateSession)
	}

	r.log.Debug().
		Str("user_id", s.UserID).
		Str("kind", string(s.Kind)).
		Str("role_type", string(s.RoleType)).
		Msg("session reserved")
	return nil
}

// Attach binds channelID to the reserved session of userID
func (r *Registry) Attach(ctx context.Context, userID, channelID string) error {
	s, err := r.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("attach channel %s: %w", channelID, err)
	}
	s.ChannelID = channelID
	if err := r.store.Update(ctx, s); err != nil {
		return fmt.Errorf("attach channel %s: %w", channelID, err)
	}

	r.log.Info().
		Str("user_id", userID).
		Str("channel_id", channelID).
		Str("kind", string(s.Kind)).
		Msg("session opened")
	return nil
}

// Close removes the session of userID. Closing a missing session is a no-op.
func (r *Registry) Close(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("close session for %s: %w", userID, err)
	}
	r.log.Debug().Str("user_id", userID).Msg("session closed")
	return nil
}

// IsOpen reports whether userID has a session
func (r *Registry) IsOpen(ctx context.Context, userID string) (bool, error) {
	_, err := r.store.Get(ctx, userID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the session of userID
func (r *Registry) Get(ctx context.Context, userID string) (pkg.Session, bool, error) {
	s, err := r.store.Get(ctx, userID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return pkg.Session{}, false, nil
	}
	if err != nil {
		return pkg.Session{}, false, err
	}
	return s, true, nil
}

// ByChannel returns the session bound to channelID
func (r *Registry) ByChannel(ctx context.Context, channelID string) (pkg.Session, bool, error) {
	s, err := r.store.FindByChannel(ctx, channelID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return pkg.Session{}, false, nil
	}
	if err != nil {
		return pkg.Session{}, false, err
	}
	return s, true, nil
}

// Count returns the number of open sessions
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// Reset drops every session. Called once at startup.
func (r *Registry) Reset(ctx context.Context) error {
	if err := r.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset sessions: %w", err)
	}
	return nil
}
