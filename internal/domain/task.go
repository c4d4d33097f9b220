package domain

import (
	"strings"
	"time"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Priority - task priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Weight orders priorities from low (1) to urgent (4); unknown values weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// TaskStatus - workflow status of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskType - kind of action item
type TaskType string

const (
	TypeReminder TaskType = "reminder"
	TypeEmail    TaskType = "email"
	TypeCalendar TaskType = "calendar"
)

// SyncStatus - whether the local copy matches the last known server state
type SyncStatus string

const (
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusConflict SyncStatus = "conflict"
)

type Task struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Priority     Priority   `db:"priority" json:"priority"`
	Status       TaskStatus `db:"status" json:"status"`
	Type         TaskType   `db:"type" json:"type"`
	DueDate      time.Time  `db:"due_date" json:"dueDate"`
	SyncStatus   SyncStatus `db:"sync_status" json:"syncStatus"`
	LastSyncedAt *time.Time `db:"last_synced_at" json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress completed"`
	Type        TaskType   `json:"type" validate:"required,oneof=reminder email calendar"`
	DueDate     *Timestamp `json:"dueDate" validate:"required"`
}

// Normalize trims the title and fills defaults for priority and status.
func (n *NewTask) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Status == "" {
		n.Status = StatusTodo
	}
}

// Validate normalizes the payload and checks field constraints.
func (n *NewTask) Validate() error {
	n.Normalize()
	return Validate(n)
}

// Build turns a validated payload into a task owned by owner.
func (n NewTask) Build(id, owner string, now time.Time) Task {
	now = Stamp(now)
	return Task{
		ID:          id,
		UserID:      owner,
		Title:       n.Title,
		Description: n.Description,
		Priority:    n.Priority,
		Status:      n.Status,
		Type:        n.Type,
		DueDate:     Stamp(n.DueDate.Time),
		SyncStatus:  SyncStatusSynced,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TaskPatch carries the fields of an update request; nil fields are left as they are.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Type        *TaskType   `json:"type,omitempty"`
	DueDate     *Timestamp  `json:"dueDate,omitempty"`
}

// Apply returns a copy of t with the patch applied. Identity, owner and
// timestamps are never touched here.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.DueDate != nil {
		t.DueDate = Stamp(p.DueDate.Time)
	}
	return t
}

// ValidateTask checks the mutable fields of a full task record.
func ValidateTask(t Task) error {
	var due *Timestamp
	if !t.DueDate.IsZero() {
		due = &Timestamp{Time: t.DueDate}
	}
	n := NewTask{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Type:        t.Type,
		DueDate:     due,
	}
	return Validate(&n)
}

// NextUpdatedAt returns a modification time strictly later than prev.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = Stamp(now)
	if !now.After(prev) {
		return Stamp(prev).Add(time.Microsecond)
	}
	return now
}

// Toggled flips completion: completed goes back to todo, anything else becomes completed.
func (s TaskStatus) Toggled() TaskStatus {
	if s == StatusCompleted {
		return StatusTodo
	}
	return StatusCompleted
}

// IsOverdue reports whether an unfinished task is past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}
