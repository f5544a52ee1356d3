package zarrutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumeArray = `{
	"zarr_format": 2, "shape": [2, 2, 2], "chunks": [2, 2, 2],
	"dtype": "|u1", "compressor": null, "fill_value": 0,
	"order": "C", "filters": null
}`

func TestOpenDatasetDirectArray(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeKey(t, dir, "raw/.zarray", volumeArray)
	writeKey(t, dir, "raw/.zattrs", `{"resolution": [40.0, 4.0, 4.0], "units": "nm"}`)
	writeKey(t, dir, "raw/0.0.0", "\x00\x01\x02\x03\x04\x05\x06\x07")

	ds, err := New().OpenDataset(ctx, dir, "raw")
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "y", "x"}, ds.Variable.Dims)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, ds.Variable.Data)
	assert.Equal(t, dir+"/raw", ds.Attrs["source_url"])
	assert.InDelta(t, 40e-9, ds.Variable.Coords["z"][1], 1e-15)
}

func TestOpenDatasetPrefersConventionalNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeKey(t, dir, ".zgroup", `{"zarr_format": 2}`)
	writeKey(t, dir, "aux/.zarray", volumeArray)
	writeKey(t, dir, "aux/0.0.0", "xxxxxxxx")
	writeKey(t, dir, "data/.zarray", volumeArray)
	writeKey(t, dir, "data/.zattrs", `{"units": "nm"}`)
	writeKey(t, dir, "data/0.0.0", "yyyyyyyy")

	ds, err := New().OpenDataset(ctx, dir, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("yyyyyyyy"), ds.Variable.Data)
	assert.Equal(t, "nm", ds.Variable.Attrs["units"])
}

func TestOpenDatasetEmptyGroup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeKey(t, dir, ".zgroup", `{"zarr_format": 2}`)

	_, err := New().OpenDataset(ctx, dir, "")
	require.ErrorIs(t, err, ErrNoArrays)
}

func TestOpenDatasetMissingGroup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeKey(t, dir, ".zgroup", `{"zarr_format": 2}`)

	_, err := New().OpenDataset(ctx, dir, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array or group")
}
