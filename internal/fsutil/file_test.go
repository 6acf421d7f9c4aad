package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "unicode", "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("{}\n"), PermPublicFile))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
	assertNoTempLeftovers(t, filepath.Dir(path))
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer"), 0644))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), PermPublicFile))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileAtomic_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := WriteFileAtomic(filepath.Join(blocker, "out.json"), []byte("{}"), PermPublicFile)
	require.Error(t, err)
}

func TestAtomicWriter_AbortLeavesTargetUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	w, err := NewAtomicWriter(path, PermPublicFile)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	w.Abort()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assertNoTempLeftovers(t, filepath.Dir(path))

	_, err = w.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrWriterClosed)
	assert.ErrorIs(t, w.Commit(), ErrWriterClosed)
}

func TestWithTempFile_RemovedOnSuccess(t *testing.T) {
	var seen string
	err := WithTempFile(t.TempDir(), "dump-*.el", []byte("(message \"hi\")"), func(path string) error {
		seen = path
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "(message \"hi\")", string(data))
		assert.Equal(t, ".el", filepath.Ext(path))
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestWithTempFile_RemovedOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var seen string
	err := WithTempFile(t.TempDir(), "dump-*.el", nil, func(path string) error {
		seen = path
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestWithTempFile_BadDir(t *testing.T) {
	err := WithTempFile(filepath.Join(t.TempDir(), "missing"), "x-*", nil, func(string) error {
		t.Fatal("callback must not run")
		return nil
	})
	require.ErrorIs(t, err, ErrTempFileFailed)
}

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, ok := FindUp(nested, "package.json")
	require.True(t, ok)
	assert.Equal(t, root, found)

	_, ok = FindUp(nested, "no-such-marker-file")
	assert.False(t, ok)
}

func assertNoTempLeftovers(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
