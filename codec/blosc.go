package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Blosc decodes blosc1-framed chunks (numcodecs "blosc").
//
// Supported internal compressors: lz4/lz4hc, zlib and zstd, plus the
// memcpyed fast path. Byte shuffle is reversed; bitshuffle and blosclz
// payloads yield an UnsupportedCodecError.
type Blosc struct{}

// Name implements Codec.
func (Blosc) Name() string { return "blosc" }

const (
	bloscHeaderLen = 16

	bloscFlagByteShuffle = 0x1
	bloscFlagMemcpyed    = 0x2
	bloscFlagBitShuffle  = 0x4

	bloscCompBlosclz = 0
	bloscCompLZ4     = 1
	bloscCompSnappy  = 2
	bloscCompZlib    = 3
	bloscCompZstd    = 4
)

// Decode implements Codec.
func (Blosc) Decode(data []byte) ([]byte, error) {
	if len(data) < bloscHeaderLen {
		return nil, fmt.Errorf("blosc: payload too short (%d bytes)", len(data))
	}

	flags := data[2]
	typesize := int(data[3])
	nbytes := int(binary.LittleEndian.Uint32(data[4:8]))
	blocksize := int(binary.LittleEndian.Uint32(data[8:12]))
	cbytes := int(binary.LittleEndian.Uint32(data[12:16]))

	if cbytes > len(data) {
		return nil, fmt.Errorf("blosc: header claims %d compressed bytes, have %d", cbytes, len(data))
	}
	if flags&bloscFlagBitShuffle != 0 {
		return nil, &UnsupportedCodecError{ID: "blosc", Detail: "bitshuffle filter"}
	}

	// Fast path: the frame is an uncompressed copy.
	if flags&bloscFlagMemcpyed != 0 {
		if bloscHeaderLen+nbytes > len(data) {
			return nil, fmt.Errorf("blosc: truncated memcpyed payload")
		}
		out := make([]byte, nbytes)
		copy(out, data[bloscHeaderLen:bloscHeaderLen+nbytes])
		return out, nil
	}

	compcode := int(flags>>5) & 0x7
	if compcode == bloscCompBlosclz || compcode == bloscCompSnappy {
		name := "blosclz"
		if compcode == bloscCompSnappy {
			name = "snappy"
		}
		return nil, &UnsupportedCodecError{ID: "blosc", Detail: "internal compressor " + name}
	}

	if blocksize <= 0 || nbytes < 0 {
		return nil, fmt.Errorf("blosc: invalid header (nbytes=%d blocksize=%d)", nbytes, blocksize)
	}
	nblocks := (nbytes + blocksize - 1) / blocksize
	if bloscHeaderLen+4*nblocks > len(data) {
		return nil, fmt.Errorf("blosc: truncated block index")
	}

	shuffled := flags&bloscFlagByteShuffle != 0 && typesize > 1

	out := make([]byte, nbytes)
	for i := 0; i < nblocks; i++ {
		bstart := int(binary.LittleEndian.Uint32(data[bloscHeaderLen+4*i:]))
		blockLen := blocksize
		if rem := nbytes - i*blocksize; rem < blockLen {
			blockLen = rem
		}

		block, err := bloscDecodeBlock(data, bstart, blockLen, typesize, compcode, shuffled)
		if err != nil {
			return nil, fmt.Errorf("blosc: block %d: %w", i, err)
		}
		if shuffled {
			block = unshuffle(block, typesize)
		}
		copy(out[i*blocksize:], block)
	}
	return out, nil
}

// bloscDecodeBlock decompresses one block. Blosc splits shuffled lz4
// blocks into typesize sub-streams; every split is prefixed with a
// 4-byte little-endian compressed size. A split whose compressed size
// equals its output size is stored raw.
func bloscDecodeBlock(data []byte, off, blockLen, typesize, compcode int, shuffled bool) ([]byte, error) {
	nsplits := 1
	if shuffled && compcode == bloscCompLZ4 && blockLen%typesize == 0 {
		nsplits = typesize
	}
	splitLen := blockLen / nsplits

	out := make([]byte, 0, blockLen)
	for s := 0; s < nsplits; s++ {
		if off+4 > len(data) {
			return nil, fmt.Errorf("truncated split header")
		}
		csize := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if off+csize > len(data) {
			return nil, fmt.Errorf("truncated split payload")
		}
		src := data[off : off+csize]
		off += csize

		want := splitLen
		if s == nsplits-1 {
			want = blockLen - splitLen*(nsplits-1)
		}

		if csize == want {
			out = append(out, src...)
			continue
		}

		dst := make([]byte, want)
		switch compcode {
		case bloscCompLZ4:
			n, err := lz4.UncompressBlock(src, dst)
			if err != nil {
				return nil, err
			}
			dst = dst[:n]
		case bloscCompZlib:
			r, err := zlib.NewReader(bytes.NewReader(src))
			if err != nil {
				return nil, err
			}
			dst, err = io.ReadAll(r)
			r.Close()
			if err != nil {
				return nil, err
			}
		case bloscCompZstd:
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			dst, err = dec.DecodeAll(src, nil)
			dec.Close()
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected compressor code %d", compcode)
		}
		if len(dst) != want {
			return nil, fmt.Errorf("split decoded to %d bytes, want %d", len(dst), want)
		}
		out = append(out, dst...)
	}
	return out, nil
}

// unshuffle reverses blosc's byte shuffle: the input groups byte k of
// every element together; the output restores element order. Trailing
// bytes that do not fill a whole element are copied through.
func unshuffle(src []byte, typesize int) []byte {
	n := len(src)
	nelem := n / typesize
	dst := make([]byte, n)
	for k := 0; k < typesize; k++ {
		for j := 0; j < nelem; j++ {
			dst[j*typesize+k] = src[k*nelem+j]
		}
	}
	copy(dst[nelem*typesize:], src[nelem*typesize:])
	return dst
}
