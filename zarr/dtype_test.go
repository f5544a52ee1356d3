package zarr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDtype(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		size    int
		wantErr bool
	}{
		{in: "<f4", name: "float32", size: 4},
		{in: ">f8", name: "float64", size: 8},
		{in: "|u1", name: "uint8", size: 1},
		{in: "<i2", name: "int16", size: 2},
		{in: "<i8", name: "int64", size: 8},
		{in: "|b1", name: "bool", size: 1},
		{in: "<u4", name: "uint32", size: 4},
		{in: "|S16", name: "bytes16", size: 16},
		{in: "f4", wantErr: true},
		{in: "<x4", wantErr: true},
		{in: "^f4", wantErr: true},
		{in: "<f0", wantErr: true},
		{in: "<f", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dt, err := ParseDtype(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, dt.Name())
			assert.Equal(t, tt.size, dt.ItemSize())
			assert.Equal(t, tt.in, dt.String())
		})
	}
}

func TestDtypeJSON(t *testing.T) {
	var dt Dtype
	require.NoError(t, json.Unmarshal([]byte(`"<f4"`), &dt))
	assert.Equal(t, byte('<'), dt.ByteOrder)
	assert.False(t, dt.BigEndian())

	out, err := json.Marshal(dt)
	require.NoError(t, err)
	assert.Equal(t, `"<f4"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`"bogus"`), &dt))
	require.Error(t, json.Unmarshal([]byte(`42`), &dt))
}

func TestGridShapeAndChunkKey(t *testing.T) {
	assert.Equal(t, []int{2, 3}, GridShape([]int{4, 9}, []int{2, 3}))
	assert.Equal(t, []int{1, 4}, GridShape([]int{2, 10}, []int{5, 3}))

	assert.Equal(t, "1.4", ChunkKey([]int{1, 4}, "."))
	assert.Equal(t, "1/4", ChunkKey([]int{1, 4}, "/"))
	assert.Equal(t, "0", ChunkKey(nil, "."))
}
