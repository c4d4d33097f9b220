package repository

import (
	"context"
	"fmt"
	"strings"

	"action_items/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, priority, status, type, due_date, sync_status, last_synced_at, created_at, updated_at`

// priorityRank sorts urgent first; a plain ORDER BY priority would be alphabetical.
const priorityRank = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the user's tasks matching filter, in the filter's order.
func (r *TaskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + orderClause(filter.SortBy)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func orderClause(by domain.SortBy) string {
	switch domain.ParseSortBy(string(by)) {
	case domain.SortByPriority:
		return priorityRank + ` DESC, due_date ASC`
	case domain.SortByCreatedAt:
		return `created_at DESC`
	default:
		return `due_date ASC`
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID looks a task up regardless of owner.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// GetForUser looks a task up within the user's own set.
func (r *TaskRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	t, err := scanTask(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status), string(t.Type),
		t.DueDate, string(t.SyncStatus), t.LastSyncedAt, t.CreatedAt, t.UpdatedAt,
	)
	return mapErr(err)
}

// Replace overwrites every mutable column of the owner's task.
func (r *TaskRepository) Replace(ctx context.Context, t *domain.Task) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, priority = $5, status = $6, type = $7,
		    due_date = $8, sync_status = $9, last_synced_at = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status), string(t.Type),
		t.DueDate, string(t.SyncStatus), t.LastSyncedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t                            domain.Task
		priority, status, typ, state string
	)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&priority,
		&status,
		&typ,
		&t.DueDate,
		&state,
		&t.LastSyncedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.Type = domain.TaskType(typ)
	t.SyncStatus = domain.SyncStatus(state)
	t.DueDate = t.DueDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.LastSyncedAt != nil {
		ls := t.LastSyncedAt.UTC()
		t.LastSyncedAt = &ls
	}
	return t, nil
}
