package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"action_items/internal/domain"

	"github.com/spf13/cobra"
)

func listCmd(flags *rootFlags) *cobra.Command {
	var status, priority, typ, search, sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with optional filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				filter := domain.NewTaskFilter(status, priority, typ, search, sortBy)
				res, err := e.orch.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				printTasks(os.Stdout, res.Tasks, time.Now())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "todo, in-progress, completed or all")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high, urgent or all")
	cmd.Flags().StringVar(&typ, "type", "", "reminder, email, calendar or all")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or description")
	cmd.Flags().StringVar(&sortBy, "sort", "dueDate", "dueDate, priority or createdAt")
	return cmd
}

func addCmd(flags *rootFlags) *cobra.Command {
	var in domain.NewTask
	var priority, status, typ, due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			in.Priority = domain.Priority(priority)
			in.Status = domain.TaskStatus(status)
			in.Type = domain.TaskType(typ)
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}

			return withSession(cmd.Context(), flags, func(e *env) error {
				t, err := e.orch.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Println(t.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium (default), high, urgent")
	cmd.Flags().StringVar(&status, "status", "", "todo (default), in-progress, completed")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "reminder, email or calendar")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func editCmd(flags *rootFlags) *cobra.Command {
	var title, description, priority, status, typ, due string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.TaskPatch
			f := cmd.Flags()
			if f.Changed("title") {
				patch.Title = &title
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("priority") {
				p := domain.Priority(priority)
				patch.Priority = &p
			}
			if f.Changed("status") {
				s := domain.TaskStatus(status)
				patch.Status = &s
			}
			if f.Changed("type") {
				t := domain.TaskType(typ)
				patch.Type = &t
			}
			if f.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				patch.DueDate = d
			}

			return withSession(cmd.Context(), flags, func(e *env) error {
				_, err := e.orch.Update(cmd.Context(), args[0], patch)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium, high, urgent")
	cmd.Flags().StringVar(&status, "status", "", "todo, in-progress, completed")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "reminder, email, calendar")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func doneCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between completed and todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				_, err := e.orch.ToggleComplete(cmd.Context(), args[0])
				return err
			})
		},
	}
}

func rmCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				return e.orch.Delete(cmd.Context(), args[0])
			})
		},
	}
}

// parseDue accepts the --due flag formats. Bare dates are midnight UTC, as
// the server stores them.
func parseDue(s string) (*domain.Timestamp, error) {
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return nil, fmt.Errorf("due date %q must be YYYY-MM-DD or RFC 3339", s)
	}
	return domain.TimestampOf(t), nil
}

func printTasks(w io.Writer, tasks []domain.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tPRIORITY\tSTATUS\tDUE\tSYNC")
	for _, t := range tasks {
		due := t.DueDate.Local().Format("2006-01-02 15:04")
		if t.IsOverdue(now) {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Type, t.Priority, t.Status, due, t.SyncStatus)
	}
	tw.Flush()
}
