// =============================================================================
// recordmove - File Manager Utility
// =============================================================================
//
// This module provides the file handling the migration relies on:
//   - Backups: point-in-time copies of each dataset at <path><suffix>
//   - Restore: copying those backups back over the datasets
//   - Staged writes: write to a temporary sibling, then rename into place
//
// BACKUP STRATEGY:
//   - Backups are taken before anything else and are overwritten every run
//   - Permission bits and modification time are carried over to the copy
//   - The first failure aborts; backups already taken are left in place
//
// =============================================================================

package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

// =============================================================================
// BACKUPS
// =============================================================================

// BackupPath returns the backup location for path.
func BackupPath(path, suffix string) string {
	return path + suffix
}

// BackupFiles copies every path to its backup location.
//
// PARAMETERS:
//   - suffix: Appended to each path to name the backup (e.g. ".bak").
//   - paths: The files to back up, in order.
//
// RETURNS:
//   - The backup paths, in the same order.
//   - An error on the first file that cannot be copied.
func BackupFiles(suffix string, paths ...string) ([]string, error) {
	backups := make([]string, 0, len(paths))

	for _, path := range paths {
		backup := BackupPath(path, suffix)
		if err := copyFile(path, backup); err != nil {
			return backups, errors.Errorf("failed to back up %s: %w", path, err)
		}
		backups = append(backups, backup)
	}

	return backups, nil
}

// RestoreFiles copies each path's backup back over the path. Every backup is
// checked before any file is overwritten, so a missing backup changes nothing.
func RestoreFiles(suffix string, paths ...string) error {
	for _, path := range paths {
		backup := BackupPath(path, suffix)
		info, err := os.Stat(backup)
		if err != nil {
			return errors.Errorf("backup for %s unavailable: %w", path, err)
		}
		if info.IsDir() {
			return errors.Errorf("backup for %s is a directory: %s", path, backup)
		}
	}

	for _, path := range paths {
		if err := copyFile(BackupPath(path, suffix), path); err != nil {
			return errors.Errorf("failed to restore %s: %w", path, err)
		}
	}

	return nil
}

// =============================================================================
// STAGED WRITES
// =============================================================================

// StagedFile is a fully written temporary file waiting to replace Target.
type StagedFile struct {
	// Target is the path the staged content will replace.
	Target string

	// TempPath is the temporary file in Target's directory.
	TempPath string
}

// StageFile writes content for target into a temporary file in the same
// directory, so the later rename stays on one filesystem. The temporary
// file gets the target's current permission bits when the target exists.
//
// On error nothing is left behind.
func StageFile(target string, write func(w io.Writer) error) (*StagedFile, error) {
	dir := filepath.Dir(target)
	tempPath := filepath.Join(dir, "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")

	mode := os.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return nil, errors.Errorf("failed to create staging file: %w", err)
	}

	if err := file.Chmod(mode); err != nil {
		file.Close()
		os.Remove(tempPath)
		return nil, errors.Errorf("failed to set staging file mode: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(tempPath)
		return nil, err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return nil, errors.Errorf("failed to sync staging file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return nil, errors.Errorf("failed to close staging file: %w", err)
	}

	return &StagedFile{Target: target, TempPath: tempPath}, nil
}

// Commit renames the staged file over its target.
func (s *StagedFile) Commit() error {
	if err := os.Rename(s.TempPath, s.Target); err != nil {
		return errors.Errorf("failed to replace %s: %w", s.Target, err)
	}
	return nil
}

// Discard removes the staged file. Discarding a committed file is a no-op.
func (s *StagedFile) Discard() error {
	err := os.Remove(s.TempPath)
	if err != nil && !os.IsNotExist(err) {
		return errors.Errorf("failed to remove staging file: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies src to dst, overwriting dst, and carries over the
// permission bits and modification time of src.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", src)
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}

	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return err
	}

	if err := destFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
