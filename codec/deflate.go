package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Zlib decodes zlib-wrapped deflate streams (numcodecs "zlib").
type Zlib struct{}

// Decode implements Codec.
func (Zlib) Decode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Name implements Codec.
func (Zlib) Name() string { return "zlib" }

// Gzip decodes gzip streams (numcodecs "gzip").
type Gzip struct{}

// Decode implements Codec.
func (Gzip) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Name implements Codec.
func (Gzip) Name() string { return "gzip" }
