package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelio/zarrutil/internal/fs"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Get(ctx, ".zarray")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, ".zgroup", []byte(`{"zarr_format": 2}`)))
	require.NoError(t, st.Put(ctx, "raw/.zarray", []byte("{}")))
	require.NoError(t, st.Put(ctx, "raw/0.0", []byte{1, 2, 3}))

	data, err := st.Get(ctx, "raw/0.0")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	keys, err := st.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{".zgroup", "raw/.zarray", "raw/0.0"}, keys)

	keys, err = st.List(ctx, "raw/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/.zarray", "raw/0.0"}, keys)

	ok, err := st.Contains(ctx, "raw/.zarray")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(ctx, "raw/0.0"))
	ok, err = st.Contains(ctx, "raw/0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Put(ctx, ".zattrs", []byte("old")))
	require.NoError(t, st.Put(ctx, ".zattrs", []byte("new")))

	data, err := st.Get(ctx, ".zattrs")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, st.Put(ctx, "../outside", []byte("x")))
	_, err = st.Get(ctx, "../../etc/passwd")
	require.Error(t, err)
}

func TestLocalStorePutIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(".zmetadata.tmp", fs.Fault{FailOnSync: true})

	st, err := NewLocalStoreFS(faulty, dir)
	require.NoError(t, err)

	require.NoError(t, st.Put(ctx, ".zattrs", []byte("safe")))
	require.Error(t, st.Put(ctx, ".zmetadata", []byte("doomed")))

	// the failed write must leave neither the target nor the temp file
	_, err = os.Stat(filepath.Join(dir, ".zmetadata"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ".zmetadata.tmp"))
	assert.True(t, os.IsNotExist(err))

	ok, err := st.Contains(ctx, ".zattrs")
	require.NoError(t, err)
	assert.True(t, ok)
}
