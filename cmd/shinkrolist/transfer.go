package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/shinkrolist/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the watch list to a JSON or YAML file",
	Long: `Export writes every tracked anime of the active store to a file. The
extension picks the format: .yaml or .yml for YAML, anything else JSON. The
default file is tracking-export.yaml in the data directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			path := a.Paths.ExportPath
			if len(args) == 1 {
				path = args[0]
			}

			export, err := a.Tracking.Export(ctx)
			if err != nil {
				return fmt.Errorf("failed to export tracking list: %w", err)
			}
			if err := a.Exports.Store(ctx, path, export); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(export.Entries), path)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Read a watch list file into the active store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			path := a.Paths.ExportPath
			if len(args) == 1 {
				path = args[0]
			}

			export, err := a.Exports.Get(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to read export: %w", err)
			}
			n, err := a.Tracking.Import(ctx, export)
			if err != nil {
				return fmt.Errorf("failed to import tracking list: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d entries\n", n, len(export.Entries))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
