package service

import (
	"context"
	"errors"
	"time"

	"action_items/internal/domain"
	"action_items/internal/repository"

	"github.com/google/uuid"
)

// TaskService implements the owner-scoped task operations behind the API.
type TaskService struct {
	store TaskStore
	audit *AuditService
	now   func() time.Time
}

func NewTaskService(store TaskStore, audit *AuditService) *TaskService {
	return &TaskService{store: store, audit: audit, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	return s.store.List(ctx, userID, filter)
}

// Get returns ErrTaskNotFound when no task has id and ErrForbidden when it
// belongs to someone else.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrForbidden
	}
	return t, nil
}

// Create validates in and stores a new task owned by userID. Nothing is
// persisted when validation fails.
func (s *TaskService) Create(ctx context.Context, userID string, in domain.NewTask) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := in.Build(uuid.NewString(), userID, s.now())
	if err := s.store.Create(ctx, &t); err != nil {
		return nil, err
	}
	s.audit.LogTask(ctx, userID, domain.AuditActionTaskCreate, t.ID)
	return &t, nil
}

// Update applies patch and replaces the stored record. updatedAt always moves forward.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	cur, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(*cur)
	if err := domain.ValidateTask(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = domain.NextUpdatedAt(cur.UpdatedAt, s.now())
	next.SyncStatus = domain.SyncStatusSynced

	if err := s.store.Replace(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	s.audit.LogTask(ctx, userID, domain.AuditActionTaskUpdate, id)
	return &next, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	s.audit.LogTask(ctx, userID, domain.AuditActionTaskDelete, id)
	return nil
}

func (s *TaskService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	tasks, err := s.store.List(ctx, userID, domain.TaskFilter{})
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(tasks, s.now()), nil
}

// Calendar returns the month grid for month (YYYY-MM, empty for the current month).
func (s *TaskService) Calendar(ctx context.Context, userID, month string) (string, []domain.CalendarDay, error) {
	now := s.now().UTC()
	year, m, err := domain.ParseMonth(month, now)
	if err != nil {
		return "", nil, err
	}
	tasks, err := s.store.List(ctx, userID, domain.TaskFilter{})
	if err != nil {
		return "", nil, err
	}
	label := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format(domain.MonthLayout)
	return label, domain.MonthGrid(tasks, year, m, time.UTC), nil
}
