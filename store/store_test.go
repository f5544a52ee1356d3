package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, "a/.zarray", []byte("one")))
	require.NoError(t, st.Put(ctx, "a/0.0", []byte("two")))
	require.NoError(t, st.Put(ctx, "b/.zarray", []byte("three")))
	assert.Equal(t, 3, st.Len())

	data, err := st.Get(ctx, "a/.zarray")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	// mutating the returned slice must not affect the store
	data[0] = 'X'
	again, err := st.Get(ctx, "a/.zarray")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)

	keys, err := st.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/.zarray", "a/0.0"}, keys)

	ok, err := st.Contains(ctx, "b/.zarray")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(ctx, "b/.zarray"))
	ok, err = st.Contains(ctx, "b/.zarray")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting an absent key is not an error
	require.NoError(t, st.Delete(ctx, "b/.zarray"))
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		locator string
		remote  bool
	}{
		{"s3://bucket/data.zarr", true},
		{"gs://bucket/data.zarr", true},
		{"az://container/data.zarr", true},
		{"http://host/data.zarr", false},
		{"/tmp/data.zarr", false},
		{"data.zarr", false},
		{"file:///tmp/data.zarr", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.remote, IsRemote(tt.locator), tt.locator)
	}
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "s3", Scheme("s3://bucket/key"))
	assert.Equal(t, "https", Scheme("https://host/path"))
	assert.Equal(t, "", Scheme("/plain/path"))
	assert.Equal(t, "", Scheme("relative/path"))
}

func TestSplitBucket(t *testing.T) {
	bucket, prefix, err := SplitBucket("s3://my-bucket/some/data.zarr")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "some/data.zarr", prefix)

	bucket, prefix, err = SplitBucket("gs://only-bucket")
	require.NoError(t, err)
	assert.Equal(t, "only-bucket", bucket)
	assert.Equal(t, "", prefix)

	_, _, err = SplitBucket("/no/scheme")
	require.Error(t, err)
	_, _, err = SplitBucket("s3://")
	require.Error(t, err)
}

func TestThrottledPassesThrough(t *testing.T) {
	ctx := context.Background()
	st := Throttle(NewMemoryStore(), 1000)

	require.NoError(t, st.Put(ctx, "k", []byte("v")))
	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	ok, err := st.Contains(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := st.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, st.Delete(ctx, "k"))
	require.NoError(t, st.Close())
}

func TestThrottledHonorsCancellation(t *testing.T) {
	// 1 request per minute: the second call must block on the limiter
	// and fail once the context is cancelled.
	st := Throttle(NewMemoryStore(), 1.0/60.0)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, st.Put(ctx, "k", []byte("v")))

	cancel()
	_, err := st.Get(ctx, "k")
	require.Error(t, err)
}
