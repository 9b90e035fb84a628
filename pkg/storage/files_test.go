package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "progress.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"position":1}`), 0600))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"position":2}`), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"position":2}`, string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteAndReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_cancellations.txt")

	require.NoError(t, WriteLines(path, []string{"alice", "bob"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\n", string(data))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, lines)
}

func TestReadLinesSkipsBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("  alice \n\n\tbob\r\n   \ncarol"), 0644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, lines)
}

func TestReadLinesMissingFile(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteLinesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, WriteLines(path, nil))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	dst := filepath.Join(dir, "a.json.backup")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestDataDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "igcancel"), dir)
	assert.DirExists(t, dir)
}

func TestResolveDir(t *testing.T) {
	want := filepath.Join(t.TempDir(), "data")

	dir, err := ResolveDir(want)
	require.NoError(t, err)
	assert.Equal(t, want, dir)
	assert.DirExists(t, dir)
}
