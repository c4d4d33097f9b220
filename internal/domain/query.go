package domain

import (
	"sort"
	"strings"
)

// SortBy - listing order
type SortBy string

const (
	SortByDueDate   SortBy = "dueDate"
	SortByPriority  SortBy = "priority"
	SortByCreatedAt SortBy = "createdAt"
)

// ParseSortBy falls back to due date for empty or unknown values.
func ParseSortBy(s string) SortBy {
	switch SortBy(s) {
	case SortByPriority:
		return SortByPriority
	case SortByCreatedAt:
		return SortByCreatedAt
	default:
		return SortByDueDate
	}
}

// TaskFilter narrows a task listing. Empty fields (or "all") match everything.
type TaskFilter struct {
	Status   TaskStatus
	Priority Priority
	Type     TaskType
	Search   string
	SortBy   SortBy
}

// NewTaskFilter builds a filter from raw query values.
func NewTaskFilter(status, priority, typ, search, sortBy string) TaskFilter {
	return TaskFilter{
		Status:   TaskStatus(dropAll(status)),
		Priority: Priority(dropAll(priority)),
		Type:     TaskType(dropAll(typ)),
		Search:   strings.TrimSpace(search),
		SortBy:   ParseSortBy(sortBy),
	}
}

func dropAll(v string) string {
	v = strings.TrimSpace(v)
	if v == "all" {
		return ""
	}
	return v
}

// IsZero reports whether the filter selects every task.
func (f TaskFilter) IsZero() bool {
	return f.Status == "" && f.Priority == "" && f.Type == "" && f.Search == ""
}

// Matches reports whether t passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks in the filter's order. The input is not modified.
func (f TaskFilter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	SortTasks(out, f.SortBy)
	return out
}

// SortTasks orders tasks in place: due date ascending, priority from urgent
// down, or newest created first. Ties keep their relative order.
func SortTasks(tasks []Task, by SortBy) {
	switch ParseSortBy(string(by)) {
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Weight() > tasks[j].Priority.Weight()
		})
	case SortByCreatedAt:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		})
	}
}
