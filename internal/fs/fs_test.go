package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	assert.NoError(t, f.Close())

	info2, err := lfs.Stat(fpath)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info2.Size())

	var seen []string
	err = lfs.WalkDir(tmp, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			seen = append(seen, path)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{fpath}, seen)

	newPath := filepath.Join(dir, "renamed.txt")
	assert.NoError(t, lfs.Rename(fpath, newPath))

	assert.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule(".tmp", Fault{FailOnWrite: true})

	// Writes to matching files fail.
	f, err := ffs.OpenFile(filepath.Join(tmp, "sidecar.tmp"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	assert.Error(t, err)
	assert.NoError(t, f.Close())

	// Non-matching files pass through.
	f2, err := ffs.OpenFile(filepath.Join(tmp, "plain.txt"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f2.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f2.Close())
}
