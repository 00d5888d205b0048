package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/varoOP/shinkrolist/internal/app"
	"github.com/varoOP/shinkrolist/internal/domain"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage the watch list",
	Long: `Track keeps each anime in at most one of the lists watchlist, watch-later,
watching, completed, dropped or plan-to-watch. Entries live in the signed
in account when there is one and on this device otherwise.`,
}

// trackEdit runs fn against the tracking service for the anime id in args[0]
func trackEdit(fn func(ctx context.Context, w io.Writer, a *app.App, id int, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return fn(ctx, cmd.OutOrStdout(), a, id, args[1:])
		})
	}
}

var trackSetCmd = &cobra.Command{
	Use:   "set <id> <status>",
	Short: "Move an anime to a list, or remove it with status unlisted",
	Args:  cobra.ExactArgs(2),
	RunE: trackEdit(func(ctx context.Context, w io.Writer, a *app.App, id int, args []string) error {
		status, err := domain.ParseStatus(args[0])
		if err != nil {
			return err
		}
		if err := a.Tracking.SetStatus(ctx, id, status); err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}
		fmt.Fprintf(w, "%d is now %s\n", id, status)
		return nil
	}),
}

var trackProgressCmd = &cobra.Command{
	Use:   "progress <id> <episodes>",
	Short: "Record the number of episodes watched",
	Args:  cobra.ExactArgs(2),
	RunE: trackEdit(func(ctx context.Context, w io.Writer, a *app.App, id int, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid episode count: %q", args[0])
		}
		if err := a.Tracking.UpdateProgress(ctx, id, n); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		return nil
	}),
}

var trackRateCmd = &cobra.Command{
	Use:   "rate <id> [1-5]",
	Short: "Rate a tracked anime, or clear the rating without a value",
	Args:  cobra.RangeArgs(1, 2),
	RunE: trackEdit(func(ctx context.Context, w io.Writer, a *app.App, id int, args []string) error {
		var rating *int
		if len(args) == 1 {
			r, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rating: %q", args[0])
			}
			rating = &r
		}
		if err := a.Tracking.UpdateRating(ctx, id, rating); err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		return nil
	}),
}

var trackNoteCmd = &cobra.Command{
	Use:   "note <id> [text]",
	Short: "Attach notes to a tracked anime",
	Args:  cobra.RangeArgs(1, 2),
	RunE: trackEdit(func(ctx context.Context, w io.Writer, a *app.App, id int, args []string) error {
		notes := ""
		if len(args) == 1 {
			notes = args[0]
		}
		if err := a.Tracking.UpdateNotes(ctx, id, notes); err != nil {
			return fmt.Errorf("failed to update notes: %w", err)
		}
		return nil
	}),
}

var trackStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Print the list an anime is in",
	Args:  cobra.ExactArgs(1),
	RunE: trackEdit(func(ctx context.Context, w io.Writer, a *app.App, id int, _ []string) error {
		entry, err := a.Tracking.Entry(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		if entry == nil {
			fmt.Fprintf(w, "%d: %s\n", id, domain.StatusUnlisted)
			return nil
		}
		fmt.Fprintf(w, "%d: %s, %d episodes watched", id, entry.Status, entry.Progress)
		if entry.Rating != nil {
			fmt.Fprintf(w, ", rated %d/5", *entry.Rating)
		}
		fmt.Fprintln(w)
		if entry.Notes != "" {
			fmt.Fprintln(w, entry.Notes)
		}
		return nil
	}),
}

var trackListCmd = &cobra.Command{
	Use:   "list <status>",
	Short: "List the anime in one list, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := domain.ParseStatus(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			entries, err := a.Tracking.ListResolved(ctx, status)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", status, err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Nothing in %s.\n", status)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPROGRESS\tRATING\tUPDATED")
			for _, r := range entries {
				rating := "-"
				if r.Entry.Rating != nil {
					rating = strconv.Itoa(*r.Entry.Rating)
				}
				fmt.Fprintf(tw, "%d\t%s\t%d/%s\t%s\t%s\n", r.Entry.AnimeID, r.Anime.Title, r.Entry.Progress,
					episodes(r.Anime.Episodes), rating, r.Entry.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var trackCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print how many anime each list holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			counts, err := a.Tracking.Counts(ctx)
			if err != nil {
				return fmt.Errorf("failed to count entries: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, s := range domain.Buckets {
				fmt.Fprintf(out, "%-14s %d\n", s, counts[s])
			}
			fmt.Fprintf(out, "\nstored %s\n", a.Tracking.Backend(ctx))
			return nil
		})
	},
}

var trackMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the device list into the signed in account",
	Long: `Migrate copies every entry kept on this device into the signed in
account. When both hold the same anime the more recently updated entry wins.
The device list is left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Tracking.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d entries, kept %d newer account entries\n", res.Copied, res.Skipped)
			return nil
		})
	},
}

func init() {
	trackCmd.AddCommand(trackSetCmd, trackProgressCmd, trackRateCmd, trackNoteCmd,
		trackStatusCmd, trackListCmd, trackCountsCmd, trackMigrateCmd)
	rootCmd.AddCommand(trackCmd)
}
