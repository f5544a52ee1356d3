package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePayload = bytes.Repeat([]byte("chunked array data "), 32)

func TestByName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "raw"},
		{"raw", "raw"},
		{"zlib", "zlib"},
		{"gzip", "gzip"},
		{"zstd", "zstd"},
		{"lz4", "lz4"},
		{"blosc", "blosc"},
	}
	for _, tt := range tests {
		c, err := ByName(tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, c.Name())
	}

	_, err := ByName("lzma")
	require.Error(t, err)
	var uce *UnsupportedCodecError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "lzma", uce.ID)
}

func TestRawPassthrough(t *testing.T) {
	out, err := Raw{}.Decode(samplePayload)
	require.NoError(t, err)
	assert.Equal(t, samplePayload, out)
}

func TestZlibDecode(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(samplePayload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := Zlib{}.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, samplePayload, out)

	_, err = Zlib{}.Decode([]byte("not zlib"))
	require.Error(t, err)
}

func TestGzipDecode(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(samplePayload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	out, err := Gzip{}.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, samplePayload, out)
}

func TestZstdDecode(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(samplePayload, nil)
	require.NoError(t, enc.Close())

	out, err := Zstd{}.Decode(compressed)
	require.NoError(t, err)
	assert.Equal(t, samplePayload, out)
}

func TestLZ4Decode(t *testing.T) {
	block := make([]byte, lz4.CompressBlockBound(len(samplePayload)))
	var c lz4.Compressor
	n, err := c.CompressBlock(samplePayload, block)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	frame := make([]byte, 4+n)
	binary.LittleEndian.PutUint32(frame, uint32(len(samplePayload)))
	copy(frame[4:], block[:n])

	out, err := LZ4{}.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, samplePayload, out)

	_, err = LZ4{}.Decode([]byte{1, 2})
	require.Error(t, err)
}

// bloscFrame builds a frame with the given flags and payload sections.
func bloscFrame(flags, typesize byte, nbytes, blocksize int, tail []byte) []byte {
	frame := make([]byte, bloscHeaderLen+len(tail))
	frame[0] = 2 // format version
	frame[1] = 1
	frame[2] = flags
	frame[3] = typesize
	binary.LittleEndian.PutUint32(frame[4:], uint32(nbytes))
	binary.LittleEndian.PutUint32(frame[8:], uint32(blocksize))
	binary.LittleEndian.PutUint32(frame[12:], uint32(len(frame)))
	copy(frame[bloscHeaderLen:], tail)
	return frame
}

func TestBloscMemcpyed(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	frame := bloscFrame(bloscFlagMemcpyed, 1, len(payload), len(payload), payload)

	out, err := Blosc{}.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestBloscZlibBlock(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB, 0xCD}, 64)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// one block: starts table entry points past itself, split carries a
	// 4-byte compressed-size prefix
	tail := make([]byte, 4+4+buf.Len())
	binary.LittleEndian.PutUint32(tail, uint32(bloscHeaderLen+4))
	binary.LittleEndian.PutUint32(tail[4:], uint32(buf.Len()))
	copy(tail[8:], buf.Bytes())

	flags := byte(bloscCompZlib << 5)
	frame := bloscFrame(flags, 1, len(payload), len(payload), tail)

	out, err := Blosc{}.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestBloscRejectsBitshuffle(t *testing.T) {
	frame := bloscFrame(bloscFlagBitShuffle, 4, 16, 16, make([]byte, 16))

	_, err := Blosc{}.Decode(frame)
	var uce *UnsupportedCodecError
	require.ErrorAs(t, err, &uce)
	assert.Contains(t, uce.Detail, "bitshuffle")
}

func TestBloscRejectsBlosclz(t *testing.T) {
	frame := bloscFrame(0, 1, 16, 16, make([]byte, 20))

	_, err := Blosc{}.Decode(frame)
	var uce *UnsupportedCodecError
	require.ErrorAs(t, err, &uce)
	assert.Contains(t, uce.Detail, "blosclz")
}

func TestBloscTruncated(t *testing.T) {
	_, err := Blosc{}.Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestUnshuffle(t *testing.T) {
	// byte k of every element grouped together; two uint16 elements
	// {0x0201, 0x0403} shuffle to lows {01, 03} then highs {02, 04}
	shuffled := []byte{0x01, 0x03, 0x02, 0x04}
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, unshuffle(shuffled, 2))

	// trailing bytes that do not fill an element pass through
	shuffled = []byte{0x01, 0x03, 0x02, 0x04, 0xFF}
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0xFF}, unshuffle(shuffled, 2))
}
