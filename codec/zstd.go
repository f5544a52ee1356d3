package codec

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd decodes zstandard frames (numcodecs "zstd").
type Zstd struct{}

// Decode implements Codec.
func (Zstd) Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// Name implements Codec.
func (Zstd) Name() string { return "zstd" }
