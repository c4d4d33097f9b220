package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"action_items/internal/domain"
	"action_items/internal/syncer"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func registerCmd(flags *rootFlags) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if password == "" {
				if password, err = readPassword(os.Stdin, os.Stderr, "Password: "); err != nil {
					return err
				}
			}
			reg := domain.Registration{Name: name, Email: email, Password: password}
			if err := e.session.Register(ctx, reg); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Registered and signed in as " + e.session.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd(flags *rootFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if password == "" {
				if password, err = readPassword(os.Stdin, os.Stderr, "Password: "); err != nil {
					return err
				}
			}
			if err := e.session.Login(ctx, domain.Credentials{Email: email, Password: password}); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Signed in as " + e.session.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := withSession(ctx, flags, func(e *env) error {
				// pending offline edits are pushed first when the server is reachable
				if e.orch.State() == syncer.Online {
					_, _ = e.orch.Sync(ctx)
				}
				if err := e.session.Logout(ctx, force); err != nil {
					if errors.Is(err, syncer.ErrUnsyncedChanges) {
						return fmt.Errorf("%w; run `taskctl sync` when online, or `taskctl logout --force` to discard them", err)
					}
					return err
				}
				fmt.Println(successStyle.Render("Signed out"))
				return nil
			})
			if errors.Is(err, errNotLoggedIn) {
				fmt.Println("Not signed in")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "sign out even if local changes have not been synced")
	return cmd
}

// readPassword reads a line from in without echo when in is a terminal.
func readPassword(in *os.File, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
