package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

func TestVoxelSpacingPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		attrs zarr.Attributes
		want  Spacing
	}{
		{
			name: "pixel resolution dimensions",
			attrs: zarr.Attributes{
				"pixelResolution": map[string]any{
					"dimensions": []any{4.0, 4.0, 40.0},
				},
				"spacing": []any{1.0, 1.0, 1.0},
			},
			want: Spacing{4.0, 4.0, 40.0},
		},
		{
			name:  "flat spacing",
			attrs: zarr.Attributes{"spacing": []any{8.0, 8.0, 8.0}},
			want:  Spacing{8.0, 8.0, 8.0},
		},
		{
			name:  "resolution",
			attrs: zarr.Attributes{"resolution": []any{16.0, 8.0, 8.0}},
			want:  Spacing{16.0, 8.0, 8.0},
		},
		{
			name:  "voxel_size",
			attrs: zarr.Attributes{"voxel_size": []any{2.0, 2.0, 2.0}},
			want:  Spacing{2.0, 2.0, 2.0},
		},
		{
			name: "per axis with mixed suffixes",
			attrs: zarr.Attributes{
				"z_spacing":    5.0,
				"y_resolution": 2.5,
				"xResolution":  1.25,
			},
			want: Spacing{5.0, 2.5, 1.25},
		},
		{
			name: "incomplete per axis falls back",
			attrs: zarr.Attributes{
				"z_spacing": 5.0,
				"y_spacing": 2.5,
			},
			want: DefaultSpacing,
		},
		{
			name:  "wrong arity skips tier",
			attrs: zarr.Attributes{"spacing": []any{8.0, 8.0}},
			want:  DefaultSpacing,
		},
		{
			name:  "non numeric skips tier",
			attrs: zarr.Attributes{"spacing": []any{"a", "b", "c"}},
			want:  DefaultSpacing,
		},
		{
			name:  "numeric strings accepted",
			attrs: zarr.Attributes{"spacing": []any{"4.0", "4.0", "40.0"}},
			want:  Spacing{4.0, 4.0, 40.0},
		},
		{
			name: "broken first tier falls through to second",
			attrs: zarr.Attributes{
				"pixelResolution": map[string]any{"dimensions": []any{1.0, 2.0}},
				"resolution":      []any{16.0, 8.0, 8.0},
			},
			want: Spacing{16.0, 8.0, 8.0},
		},
		{
			name:  "empty attrs",
			attrs: zarr.Attributes{},
			want:  DefaultSpacing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VoxelSpacing(tt.attrs, DefaultSpacing))
		})
	}
}

func newArray(t *testing.T, zarray, zattrs string, chunks map[string][]byte) *zarr.Array {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(ctx, ".zarray", []byte(zarray)))
	if zattrs != "" {
		require.NoError(t, st.Put(ctx, ".zattrs", []byte(zattrs)))
	}
	for key, data := range chunks {
		require.NoError(t, st.Put(ctx, key, data))
	}
	a, err := zarr.OpenArray(ctx, st, "")
	require.NoError(t, err)
	return a
}

func TestFromArray3D(t *testing.T) {
	a := newArray(t, `{
		"zarr_format": 2, "shape": [2, 2, 2], "chunks": [2, 2, 2],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`, `{"resolution": [40.0, 4.0, 4.0], "units": "nm"}`, map[string][]byte{
		"0.0.0": {0, 1, 2, 3, 4, 5, 6, 7},
	})

	ds, err := FromArray(context.Background(), a, Options{WithCoords: true})
	require.NoError(t, err)

	v := ds.Variable
	assert.Equal(t, "values", v.Name)
	assert.Equal(t, []string{"z", "y", "x"}, v.Dims)
	assert.Equal(t, []int{2, 2, 2}, v.Shape)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, v.Data)

	// index * spacing_nm * 1e-9
	assert.InDelta(t, 40e-9, v.Coords["z"][1], 1e-15)
	assert.InDelta(t, 4e-9, v.Coords["y"][1], 1e-15)
	assert.InDelta(t, 4e-9, v.Coords["x"][1], 1e-15)

	assert.Equal(t, "nm", v.Attrs["units"])
	assert.Equal(t, []int{2, 2, 2}, v.Attrs["zarr_chunks"])
	assert.Equal(t, Spacing{40.0, 4.0, 4.0}, ds.Attrs["voxel_spacing_nm"])
}

func TestFromArray2DPromotesToUnitZ(t *testing.T) {
	a := newArray(t, `{
		"zarr_format": 2, "shape": [100, 200], "chunks": [100, 200],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`, "", map[string][]byte{
		"0.0": make([]byte, 100*200),
	})

	ds, err := FromArray(context.Background(), a, Options{WithCoords: true})
	require.NoError(t, err)

	v := ds.Variable
	assert.Equal(t, []string{"z", "y", "x"}, v.Dims)
	assert.Equal(t, []int{1, 100, 200}, v.Shape)
	assert.Equal(t, []float64{0}, v.Coords["z"])
	assert.Len(t, v.Coords["y"], 100)
	assert.Len(t, v.Coords["x"], 200)
}

func TestFromArray4DChannelCoords(t *testing.T) {
	a := newArray(t, `{
		"zarr_format": 2, "shape": [3, 2, 2, 2], "chunks": [3, 2, 2, 2],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`, "", map[string][]byte{
		"0.0.0.0": make([]byte, 24),
	})

	ds, err := FromArray(context.Background(), a, Options{WithCoords: true, VarName: "raw"})
	require.NoError(t, err)

	v := ds.Variable
	assert.Equal(t, "raw", v.Name)
	assert.Equal(t, []string{"c", "z", "y", "x"}, v.Dims)
	// channel coordinates are plain indices
	assert.Equal(t, []float64{0, 1, 2}, v.Coords["c"])
	assert.Equal(t, 3, v.Dim("c"))
	assert.Equal(t, 2, v.Dim("x"))
	assert.Equal(t, 0, v.Dim("t"))
}

func TestFromArrayUnsupportedRank(t *testing.T) {
	for _, meta := range []string{
		`{"zarr_format": 2, "shape": [8], "chunks": [8],
		  "dtype": "|u1", "compressor": null, "fill_value": 0,
		  "order": "C", "filters": null}`,
		`{"zarr_format": 2, "shape": [1, 1, 1, 1, 1], "chunks": [1, 1, 1, 1, 1],
		  "dtype": "|u1", "compressor": null, "fill_value": 0,
		  "order": "C", "filters": null}`,
	} {
		a := newArray(t, meta, "", nil)
		_, err := FromArray(context.Background(), a, Options{})
		var ure *ErrUnsupportedRank
		require.ErrorAs(t, err, &ure)
		assert.Equal(t, len(a.Meta.Shape), ure.Rank)
	}
}

func TestFromArrayWithoutCoords(t *testing.T) {
	a := newArray(t, `{
		"zarr_format": 2, "shape": [2, 2, 2], "chunks": [2, 2, 2],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`, "", map[string][]byte{"0.0.0": make([]byte, 8)})

	ds, err := FromArray(context.Background(), a, Options{})
	require.NoError(t, err)
	assert.Nil(t, ds.Variable.Coords)
}
