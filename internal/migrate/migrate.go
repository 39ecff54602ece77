// =============================================================================
// recordmove - Migration Pipeline
// =============================================================================
//
// This module runs one migration from start to finish.
//
// PIPELINE:
//   1. Back up both datasets to their .bak siblings
//   2. Load both datasets
//   3. Move the record from source to destination
//   4. Write both datasets back
//
// Every check that can fail happens before step 4, so an error never leaves
// a half-written dataset behind. In atomic write mode both files are staged
// first and only renamed into place once both staged writes succeed.
//
// =============================================================================

package migrate

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/config"
	"github.com/ginjaninja78/recordmove/internal/dataset"
	"github.com/ginjaninja78/recordmove/internal/mover"
	"github.com/ginjaninja78/recordmove/internal/types"
	"github.com/ginjaninja78/recordmove/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result describes a completed (or dry) migration run.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	SourcePath      string
	DestinationPath string

	// Row counts before and after the move.
	SourceBefore      int
	SourceAfter       int
	DestinationBefore int
	DestinationAfter  int

	// Header is the destination field order the moved record was written in.
	Header []string

	// Original is the record as found in the source.
	Original types.Record

	// Moved is the record as appended to the destination.
	Moved types.Record

	// Backups lists the backup files written. Empty on a dry run.
	Backups []string

	// DryRun is true when nothing was written.
	DryRun bool

	// WriteMode is the persist mode used.
	WriteMode string
}

// =============================================================================
// MIGRATOR
// =============================================================================

// Options adjust a single run.
type Options struct {
	// DryRun loads and transforms but skips backups and writes.
	DryRun bool
}

// Migrator runs migrations for one configuration.
type Migrator struct {
	cfg  *config.Config
	opts Options
}

// New creates a Migrator. cfg must already be validated.
func New(cfg *config.Config, opts Options) *Migrator {
	return &Migrator{
		cfg:  cfg,
		opts: opts,
	}
}

// Rule returns the move rule derived from the configuration.
func (m *Migrator) Rule() mover.Rule {
	return mover.Rule{
		RecordID:        m.cfg.RecordID,
		IDField:         m.cfg.IDField,
		TypeField:       m.cfg.TypeField,
		FromPrefix:      m.cfg.FromPrefix,
		ToPrefix:        m.cfg.ToPrefix,
		DestinationType: m.cfg.DestinationType,
	}
}

// Run performs the migration.
//
// RETURNS:
//   - The Result of the run.
//   - An error from any stage. mover.ErrRecordNotFound means the record was
//     not in the source and no dataset was written.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:           uuid.NewString(),
		StartedAt:       time.Now(),
		SourcePath:      m.cfg.SourcePath(),
		DestinationPath: m.cfg.DestinationPath(),
		DryRun:          m.opts.DryRun,
		WriteMode:       m.cfg.WriteMode,
	}

	logger := zerolog.Ctx(ctx).With().Str("run_id", result.RunID).Logger()
	delimiter := m.cfg.DelimiterRune()

	// =========================================================================
	// STEP 1: BACKUP
	// =========================================================================

	if !m.opts.DryRun {
		backups, err := utils.BackupFiles(m.cfg.BackupSuffix, result.SourcePath, result.DestinationPath)
		if err != nil {
			return nil, err
		}
		result.Backups = backups
		logger.Info().Strs("backups", backups).Msg("datasets backed up")
	} else {
		logger.Info().Msg("dry run, skipping backups")
	}

	// =========================================================================
	// STEP 2: LOAD
	// =========================================================================

	source, err := dataset.Load(result.SourcePath, delimiter)
	if err != nil {
		return nil, errors.Errorf("failed to load source dataset: %w", err)
	}

	destination, err := dataset.Load(result.DestinationPath, delimiter)
	if err != nil {
		return nil, errors.Errorf("failed to load destination dataset: %w", err)
	}

	result.SourceBefore = source.Len()
	result.DestinationBefore = destination.Len()

	logger.Debug().
		Int("source_rows", source.Len()).
		Int("destination_rows", destination.Len()).
		Msg("datasets loaded")

	// =========================================================================
	// STEP 3: MOVE
	// =========================================================================

	moved, err := mover.Move(source, destination, m.Rule())
	if err != nil {
		return nil, err
	}

	result.SourceAfter = moved.Source.Len()
	result.DestinationAfter = moved.Destination.Len()
	result.Header = append([]string(nil), moved.Destination.Header...)
	result.Original = moved.Original
	result.Moved = moved.Moved

	logger.Info().
		Str("from_id", moved.Original[m.cfg.IDField]).
		Str("to_id", moved.Moved[m.cfg.IDField]).
		Int("source_index", moved.SourceIndex).
		Msg("record moved")

	// =========================================================================
	// STEP 4: PERSIST
	// =========================================================================

	if m.opts.DryRun {
		result.FinishedAt = time.Now()
		logger.Info().Msg("dry run, datasets not written")
		return result, nil
	}

	if err := m.persist(logger, moved.Source, moved.Destination); err != nil {
		return nil, err
	}

	result.FinishedAt = time.Now()
	logger.Info().
		Int("source_rows", result.SourceAfter).
		Int("destination_rows", result.DestinationAfter).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("datasets written")

	return result, nil
}

// persist writes both datasets according to the configured write mode.
func (m *Migrator) persist(logger zerolog.Logger, source, destination *types.Dataset) error {
	delimiter := m.cfg.DelimiterRune()

	if m.cfg.WriteMode == config.WriteModeDirect {
		if err := dataset.Write(source.Path, source, delimiter); err != nil {
			return errors.Errorf("failed to write source dataset: %w", err)
		}
		if err := dataset.Write(destination.Path, destination, delimiter); err != nil {
			logger.Error().Err(err).Msg("source written but destination failed, restore from backups")
			return errors.Errorf("failed to write destination dataset: %w", err)
		}
		return nil
	}

	stagedSource, err := stage(source, delimiter)
	if err != nil {
		return errors.Errorf("failed to stage source dataset: %w", err)
	}

	stagedDestination, err := stage(destination, delimiter)
	if err != nil {
		discard(logger, stagedSource)
		return errors.Errorf("failed to stage destination dataset: %w", err)
	}

	if err := stagedSource.Commit(); err != nil {
		discard(logger, stagedSource)
		discard(logger, stagedDestination)
		return err
	}

	if err := stagedDestination.Commit(); err != nil {
		discard(logger, stagedDestination)
		logger.Error().Err(err).Msg("source replaced but destination failed, restore from backups")
		return err
	}

	return nil
}

func stage(ds *types.Dataset, delimiter rune) (*utils.StagedFile, error) {
	return utils.StageFile(ds.Path, func(w io.Writer) error {
		return dataset.Encode(w, ds, delimiter)
	})
}

func discard(logger zerolog.Logger, staged *utils.StagedFile) {
	if err := staged.Discard(); err != nil {
		logger.Warn().Err(err).Str("file", staged.TempPath).Msg("staging file left behind")
	}
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore copies both backups back over their datasets.
func (m *Migrator) Restore(ctx context.Context) ([]string, error) {
	paths := []string{m.cfg.SourcePath(), m.cfg.DestinationPath()}

	if m.opts.DryRun {
		for _, path := range paths {
			if !utils.FileExists(utils.BackupPath(path, m.cfg.BackupSuffix)) {
				return nil, errors.Errorf("no backup for %s", path)
			}
		}
		zerolog.Ctx(ctx).Info().Strs("files", paths).Msg("dry run, datasets not restored")
		return paths, nil
	}

	if err := utils.RestoreFiles(m.cfg.BackupSuffix, paths...); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Strs("files", paths).Msg("datasets restored from backups")
	return paths, nil
}
