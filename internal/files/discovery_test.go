package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medcli/internal/errors"
)

func touchFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestFindInputFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	touchFile(t, dir, "admissions_old.csv", now.Add(-2*time.Hour))
	touchFile(t, dir, "admissions_new.csv", now)
	touchFile(t, dir, "export.xlsx", now.Add(-time.Hour))
	touchFile(t, dir, "notes.txt", now)
	touchFile(t, dir, "~$export.xlsx", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))

	files, err := NewDiscovery(nil).FindInputFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 3, "text files, lock files and directories are skipped")
	assert.Equal(t, "admissions_new.csv", files[0].Name, "newest first")
	assert.Equal(t, "export.xlsx", files[1].Name)
	assert.Equal(t, "admissions_old.csv", files[2].Name)
	assert.Equal(t, filepath.Join(dir, "admissions_new.csv"), files[0].Path)
}

func TestFindInputFilesMissingDirectory(t *testing.T) {
	_, err := NewDiscovery(nil).FindInputFiles(filepath.Join(t.TempDir(), "absent"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestResolveInputFilePassthrough(t *testing.T) {
	dir := t.TempDir()
	path := touchFile(t, dir, "admissions.csv", time.Now())

	resolved, err := NewDiscovery(nil).ResolveInput(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolveInputDirectoryPicksNewest(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	touchFile(t, dir, "admissions_2023.csv", now.Add(-24*time.Hour))
	want := touchFile(t, dir, "admissions_2024.csv", now)

	resolved, err := NewDiscovery(nil).ResolveInput(dir)
	require.NoError(t, err)
	assert.Equal(t, want, resolved)
}

func TestResolveInputEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, dir, "readme.md", time.Now())

	_, err := NewDiscovery(nil).ResolveInput(dir)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "admissions file")
}

func TestResolveInputMissingPath(t *testing.T) {
	_, err := NewDiscovery(nil).ResolveInput(filepath.Join(t.TempDir(), "absent.csv"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}
