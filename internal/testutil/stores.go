// Package testutil provides in-memory stores for service, handler and
// end-to-end tests that should run without PostgreSQL.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"action_items/internal/domain"
	"action_items/internal/repository"
)

// TaskStore is an in-memory service.TaskStore. Set FailList to make List error.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]domain.Task

	FailList error
}

func NewTaskStore(seed ...domain.Task) *TaskStore {
	s := &TaskStore{tasks: make(map[string]domain.Task)}
	for _, t := range seed {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *TaskStore) List(_ context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList != nil {
		return nil, s.FailList
	}
	var own []domain.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			own = append(own, t)
		}
	}
	// map order is random; fix a base order before the stable sort
	sortByID(own)
	return filter.Apply(own), nil
}

func (s *TaskStore) GetByID(_ context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *TaskStore) GetForUser(_ context.Context, id, userID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *TaskStore) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return repository.ErrDuplicate
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *TaskStore) Replace(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return repository.ErrNotFound
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *TaskStore) Delete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// Len returns the number of stored tasks across all users.
func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func sortByID(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}

// UserStore is an in-memory service.UserStore.
type UserStore struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

func (s *UserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	u.Email = strings.ToLower(u.Email)
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) UpdateProfile(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.AvatarURL, cur.UpdatedAt = u.Name, u.AvatarURL, u.UpdatedAt
	s.users[u.ID] = cur
	return nil
}

// AuditStore records audit entries in memory.
type AuditStore struct {
	mu   sync.Mutex
	Logs []domain.AuditLog
}

func (s *AuditStore) Create(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Logs = append(s.Logs, *log)
	return nil
}

// GetByUserID returns userID's entries newest first.
func (s *AuditStore) GetByUserID(_ context.Context, userID string, limit int) ([]*domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(s.Logs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.Logs[i].UserID == userID {
			l := s.Logs[i]
			out = append(out, &l)
		}
	}
	return out, nil
}

// Actions returns the recorded actions in order.
func (s *AuditStore) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Logs))
	for _, l := range s.Logs {
		out = append(out, l.Action)
	}
	return out
}

// Pinger is a handlers.Pinger that returns Err.
type Pinger struct{ Err error }

func (p Pinger) Ping(context.Context) error { return p.Err }
