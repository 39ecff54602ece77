package utils

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	require.NoError(t, os.Chmod(path, 0o640))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBackupFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "day_trips.csv")
	b := filepath.Join(dir, "special_events.csv")
	writeFile(t, a, "id|type\ndt1|day trips\n")
	writeFile(t, b, "id|type\nsp1|special events\n")

	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(a, modTime, modTime))

	// a stale backup is overwritten
	writeFile(t, a+".bak", "stale")

	backups, err := BackupFiles(".bak", a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{a + ".bak", b + ".bak"}, backups)

	assert.Equal(t, readFile(t, a), readFile(t, a+".bak"))
	assert.Equal(t, readFile(t, b), readFile(t, b+".bak"))

	info, err := os.Stat(a + ".bak")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modTime))
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestBackupFilesMissingSource(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "present.csv")
	writeFile(t, a, "id\n")

	backups, err := BackupFiles(".bak", a, filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, []string{a + ".bak"}, backups)
}

func TestRestoreFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	writeFile(t, a, "before a")
	writeFile(t, b, "before b")

	_, err := BackupFiles(".bak", a, b)
	require.NoError(t, err)

	writeFile(t, a, "after a")
	writeFile(t, b, "after b")

	require.NoError(t, RestoreFiles(".bak", a, b))
	assert.Equal(t, "before a", readFile(t, a))
	assert.Equal(t, "before b", readFile(t, b))
}

func TestRestoreFilesMissingBackupChangesNothing(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	writeFile(t, a, "current a")
	writeFile(t, a+".bak", "backup a")
	writeFile(t, b, "current b")

	err := RestoreFiles(".bak", a, b)
	require.Error(t, err)
	assert.Equal(t, "current a", readFile(t, a))
	assert.Equal(t, "current b", readFile(t, b))
}

func TestStageFileCommit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.csv")
	writeFile(t, target, "old")

	staged, err := StageFile(target, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "old", readFile(t, target))
	assert.Equal(t, "new", readFile(t, staged.TempPath))
	assert.Equal(t, dir, filepath.Dir(staged.TempPath))

	require.NoError(t, staged.Commit())
	assert.Equal(t, "new", readFile(t, target))
	assert.False(t, FileExists(staged.TempPath))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	require.NoError(t, staged.Discard())
}

func TestStageFileWriteFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.csv")
	writeFile(t, target, "old")

	boom := errors.New("boom")
	staged, err := StageFile(target, func(w io.Writer) error {
		return boom
	})
	require.Error(t, err)
	assert.Nil(t, staged)
	assert.True(t, errors.Is(err, boom))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "old", readFile(t, target))
}

func TestStageFileDiscard(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.csv")

	staged, err := StageFile(target, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	require.NoError(t, staged.Discard())
	assert.False(t, FileExists(staged.TempPath))
	assert.False(t, FileExists(target))
}
