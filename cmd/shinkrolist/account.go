package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/shinkrolist/internal/app"
	"github.com/varoOP/shinkrolist/internal/domain"
)

var errNoAccount = errors.New("accounts are not configured (set supabase.url and supabase.anon_key)")

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Sign in to keep the watch list in a Supabase account",
}

func withAccount(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if a.Account == nil {
			return errNoAccount
		}
		return fn(ctx, a)
	})
}

// credentials reads the password from SHINKROLIST_PASSWORD or stdin
func credentials(cmd *cobra.Command, email string) (string, string, error) {
	if p := os.Getenv("SHINKROLIST_PASSWORD"); p != "" {
		return email, p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, strings.TrimRight(line, "\r\n"), nil
}

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(cmd, args[0])
		if err != nil {
			return err
		}
		return withAccount(cmd, func(ctx context.Context, a *app.App) error {
			session, err := a.Account.SignUp(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign up failed: %w", err)
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Check your inbox to confirm the account, then run account login.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Email)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(cmd, args[0])
		if err != nil {
			return err
		}
		return withAccount(cmd, func(ctx context.Context, a *app.App) error {
			session, err := a.Account.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Email)

			counts, err := a.Tracking.Counts(ctx)
			if err == nil && total(counts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The account list is empty. Run track migrate to copy the device list.")
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and fall back to the device list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccount(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Account.SignOut(ctx); err != nil {
				return fmt.Errorf("sign out failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			if a.Account == nil {
				fmt.Fprintln(out, "Not signed in (accounts are not configured)")
				return nil
			}
			session, err := a.Account.Session(ctx)
			if err != nil && !errors.Is(err, domain.ErrNoSession) {
				return fmt.Errorf("failed to read session: %w", err)
			}
			if session == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			fmt.Fprintf(out, "%s (%s)\n", session.Email, session.UserID)
			return nil
		})
	},
}

func total(counts map[domain.Status]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func init() {
	accountCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(accountCmd)
}
