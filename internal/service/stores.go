package service

import (
	"context"
	"errors"

	"action_items/internal/domain"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("not authorized to access this task")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// TaskStore is the persistence the task and sync services need.
// Lookups return repository.ErrNotFound when nothing matches.
type TaskStore interface {
	List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Replace(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id, userID string) error
}

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
}

// AuditStore persists audit entries.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.AuditLog, error)
}
