package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"action_items/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationNames lists the .sql files of fsys in apply order.
func MigrationNames(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigrations executes every migration in order. Statements are written
// to be idempotent, so re-running is safe.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
	names, err := MigrationNames(fsys)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		logger.Info("migration applied", "name", name)
	}
	return nil
}
