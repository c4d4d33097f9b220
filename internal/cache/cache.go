// Package cache is the device-local mirror of the user's tasks. It never
// resolves conflicts; callers decide what to write.
package cache

import (
	"context"
	"errors"
	"time"

	"action_items/internal/domain"
)

var ErrNotFound = errors.New("task not in cache")

// Status is the sync bookkeeping kept next to the tasks.
type Status struct {
	LastSyncedAt *time.Time
	Offline      bool
}

// Session is the signed-in identity persisted between runs.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type Store interface {
	All(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	// Add inserts t, replacing any cached task with the same id.
	Add(ctx context.Context, t domain.Task) error
	// Update replaces the whole cached record, inserting it when missing.
	Update(ctx context.Context, t domain.Task) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	// ReplaceAll swaps the cached set for tasks atomically.
	ReplaceAll(ctx context.Context, tasks []domain.Task) error

	Status(ctx context.Context) (Status, error)
	SetLastSynced(ctx context.Context, t time.Time) error
	SetOffline(ctx context.Context, offline bool) error

	SaveSession(ctx context.Context, s Session) error
	// LoadSession returns nil when nobody is signed in.
	LoadSession(ctx context.Context) (*Session, error)
	ClearSession(ctx context.Context) error

	Close() error
}
