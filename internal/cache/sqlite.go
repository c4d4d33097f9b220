package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"action_items/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    priority       TEXT NOT NULL,
    status         TEXT NOT NULL,
    type           TEXT NOT NULL,
    due_date       TEXT NOT NULL,
    sync_status    TEXT NOT NULL,
    last_synced_at TEXT,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const (
	metaLastSynced = "last_synced_at"
	metaOffline    = "offline"
	metaToken      = "session_token"
	metaUser       = "session_user"
)

const taskColumns = `id, user_id, title, description, priority, status, type, due_date, sync_status, last_synced_at, created_at, updated_at`

// timeLayout sorts lexically in time order for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens (creating if needed) the cache database at path. ":memory:"
// gives a private in-memory cache.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// single writer; also keeps one connection alive for :memory:
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache migration failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) All(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY due_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached tasks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) Add(ctx context.Context, t domain.Task) error {
	return putTask(ctx, s.db, t)
}

func (s *SQLiteStore) Update(ctx context.Context, t domain.Task) error {
	return putTask(ctx, s.db, t)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cached task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReplaceAll(ctx context.Context, tasks []domain.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	for _, t := range tasks {
		if err := putTask(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putTask(ctx context.Context, ex executor, t domain.Task) error {
	var lastSynced sql.NullString
	if t.LastSyncedAt != nil {
		lastSynced = sql.NullString{String: formatTime(*t.LastSyncedAt), Valid: true}
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			description = excluded.description,
			priority = excluded.priority,
			status = excluded.status,
			type = excluded.type,
			due_date = excluded.due_date,
			sync_status = excluded.sync_status,
			last_synced_at = excluded.last_synced_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		t.ID, t.UserID, t.Title, t.Description,
		string(t.Priority), string(t.Status), string(t.Type),
		formatTime(t.DueDate), string(t.SyncStatus), lastSynced,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to store task %s: %w", t.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var priority, status, typ, syncStatus string
	var due, created, updated string
	var lastSynced sql.NullString
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &priority, &status, &typ,
		&due, &syncStatus, &lastSynced, &created, &updated); err != nil {
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.Type = domain.TaskType(typ)
	t.SyncStatus = domain.SyncStatus(syncStatus)

	var err error
	if t.DueDate, err = parseTime(due); err != nil {
		return domain.Task{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return domain.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Task{}, err
	}
	if lastSynced.Valid {
		ls, err := parseTime(lastSynced.String)
		if err != nil {
			return domain.Task{}, err
		}
		t.LastSyncedAt = &ls
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return domain.Stamp(t).Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad cached timestamp %q: %w", s, err)
	}
	return domain.Stamp(t), nil
}

func (s *SQLiteStore) getMeta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func setMeta(ctx context.Context, ex executor, key, value string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *SQLiteStore) Status(ctx context.Context) (Status, error) {
	var st Status
	v, ok, err := s.getMeta(ctx, metaLastSynced)
	if err != nil {
		return st, err
	}
	if ok {
		t, err := parseTime(v)
		if err != nil {
			return st, err
		}
		st.LastSyncedAt = &t
	}

	v, _, err = s.getMeta(ctx, metaOffline)
	if err != nil {
		return st, err
	}
	st.Offline = v == "true"
	return st, nil
}

func (s *SQLiteStore) SetLastSynced(ctx context.Context, t time.Time) error {
	return setMeta(ctx, s.db, metaLastSynced, formatTime(t))
}

func (s *SQLiteStore) SetOffline(ctx context.Context, offline bool) error {
	v := "false"
	if offline {
		v = "true"
	}
	return setMeta(ctx, s.db, metaOffline, v)
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := setMeta(ctx, tx, metaToken, sess.Token); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, metaUser, string(user)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSession(ctx context.Context) (*Session, error) {
	token, ok, err := s.getMeta(ctx, metaToken)
	if err != nil || !ok || token == "" {
		return nil, err
	}

	sess := &Session{Token: token}
	if raw, ok, err := s.getMeta(ctx, metaUser); err != nil {
		return nil, err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &sess.User); err != nil {
			return nil, fmt.Errorf("bad cached session user: %w", err)
		}
	}
	return sess, nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key IN (?, ?)`, metaToken, metaUser)
	return err
}
