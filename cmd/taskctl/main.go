package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

type rootFlags struct {
	configPath string
	server     string
	offline    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - offline-first action items",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.taskctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.server, "server", "", "API server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.offline, "offline", false, "work from the local cache without contacting the server")

	rootCmd.AddCommand(
		registerCmd(flags),
		loginCmd(flags),
		logoutCmd(flags),
		listCmd(flags),
		addCmd(flags),
		editCmd(flags),
		doneCmd(flags),
		rmCmd(flags),
		syncCmd(flags),
		statusCmd(flags),
		statsCmd(flags),
		calendarCmd(flags),
		watchCmd(flags),
	)
	return rootCmd
}
