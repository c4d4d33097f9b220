package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"action_items/internal/domain"

	"github.com/spf13/cobra"
)

func statsCmd(flags *rootFlags) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters and recent tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				res, err := e.orch.List(cmd.Context(), domain.TaskFilter{})
				if err != nil {
					return err
				}
				now := time.Now()
				s := domain.ComputeStats(res.Tasks, now)
				fmt.Printf("Total:      %d\n", s.Total)
				fmt.Printf("Completed:  %d\n", s.Completed)
				fmt.Printf("Overdue:    %s\n", warningStyle.Render(fmt.Sprint(s.Overdue)))
				fmt.Printf("Due today:  %d\n", s.DueToday)

				if recent > 0 {
					fmt.Println()
					fmt.Println("Recent:")
					printTasks(os.Stdout, domain.RecentTasks(res.Tasks, recent), now)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "r", 5, "number of recently created tasks to show")
	return cmd
}

func calendarCmd(flags *rootFlags) *cobra.Command {
	var month, day string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month grid, or the tasks due on one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				res, err := e.orch.List(cmd.Context(), domain.TaskFilter{})
				if err != nil {
					return err
				}
				now := time.Now()

				if day != "" {
					d, err := time.ParseInLocation(domain.DayLayout, day, time.Local)
					if err != nil {
						return fmt.Errorf("day must be YYYY-MM-DD")
					}
					printTasks(os.Stdout, domain.TasksOn(res.Tasks, d), now)
					return nil
				}

				year, m, err := domain.ParseMonth(month, now)
				if err != nil {
					return err
				}
				printMonth(os.Stdout, domain.MonthGrid(res.Tasks, year, m, time.Local), year, m, now)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (default current)")
	cmd.Flags().StringVarP(&day, "day", "d", "", "list tasks due on YYYY-MM-DD")
	return cmd
}

func printMonth(w io.Writer, days []domain.CalendarDay, year int, month time.Month, now time.Time) {
	fmt.Fprintf(w, "%s %d\n", month, year)
	fmt.Fprintln(w, " Sun   Mon   Tue   Wed   Thu   Fri   Sat")
	today := now.Format(domain.DayLayout)

	var b strings.Builder
	for i, d := range days {
		cell := fmt.Sprintf("%3s", strings.TrimLeft(d.Date[8:], "0"))
		if n := len(d.Tasks); n > 0 {
			cell += fmt.Sprintf("(%d)", n)
		} else {
			cell += "   "
		}
		switch {
		case d.Date == today:
			cell = successStyle.Render(cell)
		case !d.CurrentMonth:
			cell = mutedStyle.Render(cell)
		}
		b.WriteString(cell)
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	fmt.Fprint(w, b.String())
}
