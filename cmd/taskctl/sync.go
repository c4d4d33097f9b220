package main

import (
	"fmt"
	"time"

	"action_items/internal/connectivity"
	"action_items/internal/domain"
	"action_items/internal/logger"

	"github.com/spf13/cobra"
)

func syncCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local cache with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				res, err := e.orch.Sync(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range res.Conflicts {
					fmt.Printf("conflict: %s kept server version %q\n", c.TaskID, c.ServerVersion.Title)
				}
				for _, s := range res.Skipped {
					fmt.Printf("skipped: #%d %s: %s\n", s.Index, s.TaskID, s.Reason)
				}
				return nil
			})
		},
	}
}

func statusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, session and last sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(e *env) error {
				st, err := e.store.Status(cmd.Context())
				if err != nil {
					return err
				}
				tasks, err := e.store.All(cmd.Context())
				if err != nil {
					return err
				}
				pending := 0
				for _, t := range tasks {
					if t.SyncStatus != domain.SyncStatusSynced {
						pending++
					}
				}

				last := "never"
				if st.LastSyncedAt != nil {
					last = st.LastSyncedAt.Local().Format(time.RFC1123)
				}
				fmt.Printf("Server:      %s\n", e.cfg.Server)
				fmt.Printf("User:        %s <%s>\n", e.session.User.Name, e.session.User.Email)
				fmt.Printf("State:       %s\n", e.orch.State())
				fmt.Printf("Last sync:   %s\n", last)
				fmt.Printf("Cached:      %d tasks (%d pending)\n", len(tasks), pending)
				return nil
			})
		},
	}
}

func watchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and sync whenever connectivity returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			closer := logger.InitFile(e.cfg.LogFile, e.cfg.LogLevel)
			defer closer.Close()

			ok, err := e.session.Restore(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return errNotLoggedIn
			}
			e.orch.SetUser(e.session.User.ID)

			mon := connectivity.NewMonitor(e.api.WebSocketURL)
			if e.cfg.RetrySeconds > 0 {
				mon.RetryInterval = time.Duration(e.cfg.RetrySeconds) * time.Second
			}

			fmt.Println(mutedStyle.Render("Watching connectivity; logs in " + e.cfg.LogFile + " (Ctrl-C to stop)"))
			if err := e.orch.Watch(ctx, mon.Run(ctx)); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
