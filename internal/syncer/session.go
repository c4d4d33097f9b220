package syncer

import (
	"context"
	"errors"
	"fmt"

	"action_items/internal/cache"
	"action_items/internal/domain"
	"action_items/internal/logger"
)

// ErrUnsyncedChanges is returned by Logout while the cache still holds
// edits the server has not seen.
var ErrUnsyncedChanges = errors.New("unsynced changes would be lost")

// AuthAPI is the part of the API client that manages identity.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error)
	Register(ctx context.Context, reg domain.Registration) (string, *domain.User, error)
	Logout(ctx context.Context) error
	SetToken(token string)
}

// Session owns the signed-in identity: it is created at login, persisted in
// the cache between runs and torn down at logout.
type Session struct {
	api   AuthAPI
	cache cache.Store

	Token string
	User  domain.User
}

func NewSession(api AuthAPI, store cache.Store) *Session {
	return &Session{api: api, cache: store}
}

// Restore loads a persisted session. It reports false when nobody is signed in.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	saved, err := s.cache.LoadSession(ctx)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if saved == nil {
		return false, nil
	}
	s.Token, s.User = saved.Token, saved.User
	s.api.SetToken(saved.Token)
	return true, nil
}

func (s *Session) Login(ctx context.Context, creds domain.Credentials) error {
	token, user, err := s.api.Login(ctx, creds)
	if err != nil {
		return err
	}
	return s.start(ctx, token, user)
}

func (s *Session) Register(ctx context.Context, reg domain.Registration) error {
	token, user, err := s.api.Register(ctx, reg)
	if err != nil {
		return err
	}
	return s.start(ctx, token, user)
}

func (s *Session) start(ctx context.Context, token string, user *domain.User) error {
	prev, err := s.cache.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	// a different account must not see the previous user's cache
	if prev == nil || prev.User.ID != user.ID {
		if err := s.cache.Clear(ctx); err != nil {
			return err
		}
	}
	s.Token, s.User = token, *user
	s.api.SetToken(token)
	return s.cache.SaveSession(ctx, cache.Session{Token: token, User: *user})
}

// Logout revokes the token server-side when reachable, then clears the local
// cache and session. Pending tasks block it with ErrUnsyncedChanges unless
// force is set.
func (s *Session) Logout(ctx context.Context, force bool) error {
	if !force {
		n, err := s.pending(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d task(s) not synced yet", ErrUnsyncedChanges, n)
		}
	}

	if err := s.api.Logout(ctx); err != nil {
		logger.Warn("server logout failed", "error", err)
	}
	s.api.SetToken("")
	s.Token, s.User = "", domain.User{}

	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	return s.cache.ClearSession(ctx)
}

func (s *Session) pending(ctx context.Context) (int, error) {
	tasks, err := s.cache.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read cached tasks: %w", err)
	}
	n := 0
	for _, t := range tasks {
		if t.SyncStatus == domain.SyncStatusPending || t.SyncStatus == domain.SyncStatusConflict {
			n++
		}
	}
	return n, nil
}
