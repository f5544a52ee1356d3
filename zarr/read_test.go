package zarr

import (
	"bytes"
	"context"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelio/zarrutil/store"
)

func TestReadAssemblesChunks(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, ".zarray", `{
		"zarr_format": 2, "shape": [4, 5], "chunks": [2, 3],
		"dtype": "|u1", "compressor": null, "fill_value": 7,
		"order": "C", "filters": null
	}`)
	// chunks are full 2x3 buffers; edges carry padding that must be
	// clipped, and chunk 1.1 is deliberately absent
	require.NoError(t, st.Put(ctx, "0.0", []byte{0, 1, 2, 10, 11, 12}))
	require.NoError(t, st.Put(ctx, "0.1", []byte{3, 4, 99, 13, 14, 99}))
	require.NoError(t, st.Put(ctx, "1.0", []byte{20, 21, 22, 30, 31, 32}))

	a, err := OpenArray(ctx, st, "")
	require.NoError(t, err)

	data, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 1, 2, 3, 4,
		10, 11, 12, 13, 14,
		20, 21, 22, 7, 7,
		30, 31, 32, 7, 7,
	}, data)
}

func TestReadZlibCompressed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, "v/.zarray", `{
		"zarr_format": 2, "shape": [6], "chunks": [6],
		"dtype": "|u1", "compressor": {"id": "zlib", "level": 1},
		"fill_value": 0, "order": "C", "filters": null
	}`)

	raw := []byte{9, 8, 7, 6, 5, 4}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, st.Put(ctx, "v/0", buf.Bytes()))

	a, err := OpenArray(ctx, st, "v")
	require.NoError(t, err)

	data, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestReadMissingChunksUseFill(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, ".zarray", `{
		"zarr_format": 2, "shape": [2, 2], "chunks": [2, 2],
		"dtype": "<u2", "compressor": null, "fill_value": 513,
		"order": "C", "filters": null
	}`)

	a, err := OpenArray(ctx, st, "")
	require.NoError(t, err)

	data, err := a.Read(ctx)
	require.NoError(t, err)
	// 513 = 0x0201 little-endian
	assert.Equal(t, []byte{1, 2, 1, 2, 1, 2, 1, 2}, data)
}

func TestReadRejectsFortranOrder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, ".zarray", `{
		"zarr_format": 2, "shape": [4], "chunks": [4],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "F", "filters": null
	}`)

	a, err := OpenArray(ctx, st, "")
	require.NoError(t, err)

	_, err = a.Read(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fortran")
}

func TestReadRejectsFilters(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, ".zarray", `{
		"zarr_format": 2, "shape": [4], "chunks": [4],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": [{"id": "delta"}]
	}`)

	a, err := OpenArray(ctx, st, "")
	require.NoError(t, err)

	_, err = a.Read(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delta")
}

func TestReadDimensionSeparator(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	put(t, st, ".zarray", `{
		"zarr_format": 2, "shape": [2, 2], "chunks": [2, 2],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null, "dimension_separator": "/"
	}`)
	require.NoError(t, st.Put(ctx, "0/0", []byte{1, 2, 3, 4}))

	a, err := OpenArray(ctx, st, "")
	require.NoError(t, err)

	data, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestEncodeFill(t *testing.T) {
	f4, err := ParseDtype("<f4")
	require.NoError(t, err)

	b, err := encodeFill(f4, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	b, err = encodeFill(f4, float64(1.0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, b)

	b, err = encodeFill(f4, "NaN")
	require.NoError(t, err)
	assert.NotEqual(t, []byte{0, 0, 0, 0}, b)

	u1, err := ParseDtype("|u1")
	require.NoError(t, err)
	b, err = encodeFill(u1, float64(255))
	require.NoError(t, err)
	assert.Equal(t, []byte{255}, b)

	_, err = encodeFill(u1, "bogus")
	require.Error(t, err)
}
