package domain

import (
	"sort"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"

	// calendarCells is six full weeks, enough for any month.
	calendarCells = 42
)

// Stats - dashboard counters
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	DueToday  int `json:"dueToday"`
}

// ComputeStats counts tasks relative to now; "today" is taken in now's location.
func ComputeStats(tasks []Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			s.Completed++
			continue
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if SameDay(t.DueDate, now, now.Location()) {
			s.DueToday++
		}
	}
	return s
}

// SameDay compares calendar dates of a and b in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// CalendarDay is one cell of a month view.
type CalendarDay struct {
	Date         string `json:"date"`
	CurrentMonth bool   `json:"currentMonth"`
	Tasks        []Task `json:"tasks"`
}

// MonthGrid lays out the 42 days shown for a month, starting on the Sunday
// on or before the 1st, with each day's tasks ordered by due time.
func MonthGrid(tasks []Task, year int, month time.Month, loc *time.Location) []CalendarDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	byDay := GroupByDay(tasks, loc)
	days := make([]CalendarDay, 0, calendarCells)
	for i := 0; i < calendarCells; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(DayLayout)
		dayTasks := byDay[key]
		if dayTasks == nil {
			dayTasks = []Task{}
		}
		days = append(days, CalendarDay{
			Date:         key,
			CurrentMonth: d.Month() == month,
			Tasks:        dayTasks,
		})
	}
	return days
}

// GroupByDay buckets tasks by due date (YYYY-MM-DD in loc).
func GroupByDay(tasks []Task, loc *time.Location) map[string][]Task {
	out := make(map[string][]Task)
	for _, t := range tasks {
		key := t.DueDate.In(loc).Format(DayLayout)
		out[key] = append(out[key], t)
	}
	for _, list := range out {
		SortTasks(list, SortByDueDate)
	}
	return out
}

// TasksOn returns the tasks due on the same calendar day as day.
func TasksOn(tasks []Task, day time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if SameDay(t.DueDate, day, day.Location()) {
			out = append(out, t)
		}
	}
	SortTasks(out, SortByDueDate)
	return out
}

// RecentTasks returns up to n tasks, newest created first.
func RecentTasks(tasks []Task, n int) []Task {
	out := append([]Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ParseMonth parses YYYY-MM; an empty value means the month containing now.
func ParseMonth(s string, now time.Time) (int, time.Month, error) {
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return 0, 0, NewValidationError("month", "month must be in YYYY-MM format")
	}
	return t.Year(), t.Month(), nil
}
