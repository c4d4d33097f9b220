package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"action_items/internal/db"
	"action_items/internal/domain"
	"action_items/internal/migrations"
	"action_items/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// openDB connects to DATABASE_URL and applies the schema, skipping the test
// when no database is configured.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.ApplyMigrations(context.Background(), pool, migrations.FS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func createUser(t *testing.T, users *repository.UserRepository) *domain.User {
	t.Helper()
	now := domain.Stamp(time.Now())
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "Integration",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newTask(owner, title string, priority domain.Priority, due time.Time) *domain.Task {
	now := domain.Stamp(time.Now())
	return &domain.Task{
		ID:         uuid.NewString(),
		UserID:     owner,
		Title:      title,
		Priority:   priority,
		Status:     domain.StatusTodo,
		Type:       domain.TypeReminder,
		DueDate:    domain.Stamp(due),
		SyncStatus: domain.SyncStatusSynced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
