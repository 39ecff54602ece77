package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/recordmove/internal/migrate"
)

// restoreCmd copies the .bak files written by the last run back over both
// datasets.
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore both datasets from their .bak backups",
	Long: `Restore copies day_trips_standardized.csv.bak and
special_events_standardized.csv.bak back over the datasets. Both backups must
exist; if either is missing nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := withLogger(cmd.Context(), cmd.ErrOrStderr(), cfg)

		restored, err := migrate.New(cfg, migrate.Options{DryRun: dryRun}).Restore(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if dryRun {
			fmt.Fprintf(out, "%s backups available for %d file(s)\n", color.New(color.FgYellow).Sprint("Dry run:"), len(restored))
			return nil
		}

		color.New(color.FgGreen).Fprintln(out, "Datasets restored from backups.")
		for _, path := range restored {
			fmt.Fprintf(out, "  restored %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
