package zarr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/voxelio/zarrutil/codec"
	"github.com/voxelio/zarrutil/store"
)

// Read loads the whole array into one C-order buffer, chunk by chunk.
// Missing chunks are filled with the array's fill value; edge chunks
// are clipped to the array bounds.
func (a *Array) Read(ctx context.Context) ([]byte, error) {
	m := &a.Meta
	if m.Order == "F" {
		return nil, fmt.Errorf("array %q: Fortran chunk order is not supported", a.Path)
	}
	if len(m.Filters) > 0 {
		return nil, fmt.Errorf("array %q: filter pipeline (%s) is not supported", a.Path, m.Filters[0].ID)
	}

	dec, err := codec.ByName(m.CompressorID())
	if err != nil {
		return nil, fmt.Errorf("array %q: %w", a.Path, err)
	}

	itemSize := m.Dtype.ItemSize()
	out := make([]byte, m.SizeBytes())

	fill, err := encodeFill(m.Dtype, m.FillValue)
	if err != nil {
		return nil, fmt.Errorf("array %q: %w", a.Path, err)
	}

	grid := GridShape(m.Shape, m.Chunks)
	chunkElems := 1
	for _, c := range m.Chunks {
		chunkElems *= c
	}

	indices := make([]int, len(grid))
	for {
		key := ChunkKey(indices, m.Separator())
		raw, err := a.Store.Get(ctx, join(a.Path, key))
		var chunk []byte
		switch {
		case errors.Is(err, store.ErrNotFound):
			chunk = repeatFill(fill, chunkElems)
		case err != nil:
			return nil, fmt.Errorf("array %q: read chunk %s: %w", a.Path, key, err)
		default:
			chunk, err = dec.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("array %q: decode chunk %s: %w", a.Path, key, err)
			}
			if len(chunk) != chunkElems*itemSize {
				return nil, fmt.Errorf("array %q: chunk %s decoded to %d bytes, want %d",
					a.Path, key, len(chunk), chunkElems*itemSize)
			}
		}

		copyChunk(out, chunk, m.Shape, m.Chunks, indices, itemSize)

		if !nextChunk(indices, grid) {
			break
		}
	}
	return out, nil
}

// copyChunk places one C-order chunk buffer into the C-order array
// buffer, clipping the chunk to the array bounds.
func copyChunk(dst, chunk []byte, shape, chunks, indices []int, itemSize int) {
	ndim := len(shape)
	if ndim == 0 {
		copy(dst, chunk[:itemSize])
		return
	}

	// origin and clipped extent of the chunk inside the array
	origin := make([]int, ndim)
	extent := make([]int, ndim)
	for d := 0; d < ndim; d++ {
		origin[d] = indices[d] * chunks[d]
		extent[d] = chunks[d]
		if rem := shape[d] - origin[d]; rem < extent[d] {
			extent[d] = rem
		}
	}

	// element strides
	dstStride := make([]int, ndim)
	srcStride := make([]int, ndim)
	dstStride[ndim-1] = 1
	srcStride[ndim-1] = 1
	for d := ndim - 2; d >= 0; d-- {
		dstStride[d] = dstStride[d+1] * shape[d+1]
		srcStride[d] = srcStride[d+1] * chunks[d+1]
	}

	rowLen := extent[ndim-1] * itemSize
	pos := make([]int, ndim)
	for {
		dstOff := 0
		srcOff := 0
		for d := 0; d < ndim-1; d++ {
			dstOff += (origin[d] + pos[d]) * dstStride[d]
			srcOff += pos[d] * srcStride[d]
		}
		dstOff = (dstOff + origin[ndim-1]) * itemSize
		srcOff *= itemSize
		copy(dst[dstOff:dstOff+rowLen], chunk[srcOff:srcOff+rowLen])

		// advance over all but the innermost dimension
		d := ndim - 2
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			break
		}
	}
}

// encodeFill renders the JSON fill value as one element's bytes.
func encodeFill(dt Dtype, v any) ([]byte, error) {
	buf := make([]byte, dt.ItemSize())
	if v == nil {
		return buf, nil
	}

	var order binary.ByteOrder = binary.LittleEndian
	if dt.BigEndian() {
		order = binary.BigEndian
	}

	switch dt.Kind {
	case 'b':
		if b, ok := v.(bool); ok {
			if b {
				buf[0] = 1
			}
			return buf, nil
		}
	case 'i', 'u':
		if f, ok := v.(float64); ok {
			putUint(buf, order, uint64(int64(f)))
			return buf, nil
		}
	case 'f':
		f, ok := v.(float64)
		if !ok {
			// numpy spells non-finite fills as strings
			switch v {
			case "NaN":
				f, ok = math.NaN(), true
			case "Infinity":
				f, ok = math.Inf(1), true
			case "-Infinity":
				f, ok = math.Inf(-1), true
			}
		}
		if ok {
			switch dt.Size {
			case 4:
				order.PutUint32(buf, math.Float32bits(float32(f)))
			case 8:
				order.PutUint64(buf, math.Float64bits(f))
			default:
				return nil, fmt.Errorf("unsupported float fill width %d", dt.Size)
			}
			return buf, nil
		}
	}
	return nil, fmt.Errorf("unsupported fill value %v for dtype %s", v, dt)
}

func putUint(buf []byte, order binary.ByteOrder, u uint64) {
	switch len(buf) {
	case 1:
		buf[0] = byte(u)
	case 2:
		order.PutUint16(buf, uint16(u))
	case 4:
		order.PutUint32(buf, uint32(u))
	default:
		order.PutUint64(buf, u)
	}
}

func repeatFill(fill []byte, n int) []byte {
	out := make([]byte, len(fill)*n)
	if isZero(fill) {
		return out
	}
	for off := 0; off < len(out); off += len(fill) {
		copy(out[off:], fill)
	}
	return out
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
