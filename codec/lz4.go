package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 decodes numcodecs "lz4" payloads: a 4-byte little-endian original
// size followed by a single raw LZ4 block.
type LZ4 struct{}

// Decode implements Codec.
func (LZ4) Decode(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4: payload too short (%d bytes)", len(data))
	}
	size := binary.LittleEndian.Uint32(data[:4])
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data[4:], dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4: decoded %d bytes, header says %d", n, size)
	}
	return dst, nil
}

// Name implements Codec.
func (LZ4) Name() string { return "lz4" }
