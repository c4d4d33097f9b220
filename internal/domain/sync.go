package domain

import (
	"strings"
	"time"
)

// SyncRecord is one client task as submitted to reconciliation. Only id and
// updatedAt are needed to match it against the server; the remaining fields
// must form a valid task before the record is accepted.
type SyncRecord struct {
	ID          string     `json:"id" validate:"required"`
	UserID      string     `json:"userId,omitempty"`
	Title       string     `json:"title" validate:"max=200"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress completed"`
	Type        TaskType   `json:"type,omitempty" validate:"omitempty,oneof=reminder email calendar"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	SyncStatus  SyncStatus `json:"syncStatus,omitempty" validate:"omitempty,oneof=synced pending conflict"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt   *Timestamp `json:"updatedAt" validate:"required"`
}

// SyncRecordFromTask converts a cached task into its wire form.
func SyncRecordFromTask(t Task) SyncRecord {
	return SyncRecord{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Type:        t.Type,
		DueDate:     TimestampOf(t.DueDate),
		SyncStatus:  t.SyncStatus,
		CreatedAt:   TimestampOf(t.CreatedAt),
		UpdatedAt:   TimestampOf(t.UpdatedAt),
	}
}

// ToTask builds the server-side task the record stands for. The owner is
// always the caller; an existing record keeps its creation time.
func (r SyncRecord) ToTask(owner string, existing *Task, now time.Time) Task {
	now = Stamp(now)
	t := Task{
		ID:           r.ID,
		UserID:       owner,
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		Priority:     r.Priority,
		Status:       r.Status,
		Type:         r.Type,
		SyncStatus:   SyncStatusSynced,
		LastSyncedAt: &now,
		CreatedAt:    now,
		UpdatedAt:    Stamp(r.UpdatedAt.Time),
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if r.DueDate != nil {
		t.DueDate = Stamp(r.DueDate.Time)
	}
	switch {
	case existing != nil:
		t.CreatedAt = existing.CreatedAt
	case r.CreatedAt != nil && !r.CreatedAt.IsZero():
		t.CreatedAt = Stamp(r.CreatedAt.Time)
	}
	return t
}

// Resolution is the outcome of comparing a stored task with a submitted one.
type Resolution int

const (
	// ClientWins: the submitted version replaces the stored one.
	ClientWins Resolution = iota
	// ServerWins: the stored version is kept and a conflict is reported.
	ServerWins
)

func (r Resolution) String() string {
	if r == ServerWins {
		return "server_wins"
	}
	return "client_wins"
}

// ResolveConflict is the last-write-wins rule. The server only wins when
// its modification time is strictly later; ties go to the client.
func ResolveConflict(serverUpdatedAt, clientUpdatedAt time.Time) Resolution {
	if Stamp(serverUpdatedAt).After(Stamp(clientUpdatedAt)) {
		return ServerWins
	}
	return ClientWins
}

// SyncConflict reports a submitted task that lost to a newer server version.
type SyncConflict struct {
	TaskID        string     `json:"taskId"`
	ServerVersion Task       `json:"serverVersion"`
	ClientVersion SyncRecord `json:"clientVersion"`
}

// SkippedRecord reports a submitted record that could not be processed.
type SkippedRecord struct {
	TaskID string `json:"taskId,omitempty"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SyncResult is the outcome of one reconciliation batch.
type SyncResult struct {
	SyncedTasks []Task          `json:"syncedTasks"`
	Conflicts   []SyncConflict  `json:"conflicts"`
	ServerTasks []Task          `json:"serverTasks"`
	Skipped     []SkippedRecord `json:"skipped"`
}
