// =============================================================================
// recordmove - Root Command
// =============================================================================
//
// This file defines the root command. Running the binary with no subcommand
// performs the migration:
//
//   1. Back up both datasets to .bak siblings
//   2. Load both datasets
//   3. Move the record and rewrite its id prefix and type
//   4. Write both datasets back
//
// COBRA CLI STRUCTURE:
//   rootCmd (recordmove)
//   ├── restoreCmd (recordmove restore)
//   └── versionCmd (recordmove version)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/config"
	"github.com/ginjaninja78/recordmove/internal/migrate"
	"github.com/ginjaninja78/recordmove/internal/mover"
	"github.com/ginjaninja78/recordmove/internal/report"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile is an optional YAML file overriding the built-in settings.
var cfgFile string

// dataDir overrides the configured data directory when set.
var dataDir string

// verbose enables debug logging.
var verbose bool

// dryRun loads and transforms without writing anything.
var dryRun bool

// reportPath, when set, receives an XLSX report of the run.
var reportPath string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "recordmove",
	Short: "Move the drag show record from day trips to special events",
	Long: `recordmove relocates one record from the day trips dataset to the special
events dataset. The moved record has its "dt" id prefix replaced by "sp" and
its type set to "special events"; every other field is kept as is.

Both datasets are copied to .bak files before anything is changed. If the
record is not in the day trips dataset, nothing is written.

Example Usage:
  recordmove                              # Run the migration
  recordmove --dry-run                    # Show what would change
  recordmove --report migration.xlsx      # Also write an XLSX report
  recordmove restore                      # Put the .bak files back`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports a failed command on w. A missing record has already
// been reported on stdout by runMove, so it is not repeated here.
func printError(w io.Writer, err error) {
	if errors.Is(err, mover.ErrRecordNotFound) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file (built-in defaults when empty)",
	)

	rootCmd.PersistentFlags().StringVar(
		&dataDir,
		"data-dir",
		"",
		"Directory holding the datasets (default "+config.DefaultDataDir+")",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Load and transform without writing any file",
	)

	rootCmd.Flags().StringVar(
		&reportPath,
		"report",
		"",
		"Write an XLSX report of the migration to this path",
	)
}

// =============================================================================
// MIGRATION
// =============================================================================

func runMove(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := withLogger(cmd.Context(), cmd.ErrOrStderr(), cfg)
	out := cmd.OutOrStdout()

	result, err := migrate.New(cfg, migrate.Options{DryRun: dryRun}).Run(ctx)
	if errors.Is(err, mover.ErrRecordNotFound) {
		color.New(color.FgRed).Fprintf(out, "Error: item with ID %s not found in %s\n", cfg.RecordID, cfg.SourcePath())
		return err
	}
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := report.Write(reportPath, result); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Str("report", reportPath).Msg("report written")
	}

	printResult(out, result, cfg)
	return nil
}

func printResult(out io.Writer, result *migrate.Result, cfg *config.Config) {
	from := result.Original[cfg.IDField]
	to := result.Moved[cfg.IDField]

	if result.DryRun {
		fmt.Fprintf(out, "%s %s -> %s\n", color.New(color.FgYellow).Sprint("Dry run:"), from, to)
		fmt.Fprintf(out, "  %s: %d -> %d rows\n", result.SourcePath, result.SourceBefore, result.SourceAfter)
		fmt.Fprintf(out, "  %s: %d -> %d rows\n", result.DestinationPath, result.DestinationBefore, result.DestinationAfter)
		return
	}

	color.New(color.FgGreen).Fprintln(out, "CSV files have been updated successfully!")
	fmt.Fprintf(out, "  moved %s -> %s\n", from, to)
	for _, backup := range result.Backups {
		fmt.Fprintf(out, "  backup %s\n", backup)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// withLogger attaches a console zerolog logger to ctx.
func withLogger(ctx context.Context, w io.Writer, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}).
		With().
		Timestamp().
		Logger().
		Level(level)

	return logger.WithContext(ctx)
}
