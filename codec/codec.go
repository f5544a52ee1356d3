// Package codec decodes the chunk compression formats found in Zarr v2
// stores (numcodecs ids).
//
// Codec selection is data-driven: the ".zarray" compressor id picks the
// implementation through ByName. A nil/absent compressor maps to Raw.
package codec

import "fmt"

// Codec decompresses chunk payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Decode returns the decompressed payload.
	Decode(data []byte) ([]byte, error)
	// Name returns the numcodecs id.
	Name() string
}

// UnsupportedCodecError is returned when a chunk uses a codec this package
// cannot decode.
type UnsupportedCodecError struct {
	ID     string
	Detail string
}

func (e *UnsupportedCodecError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unsupported compression codec %q", e.ID)
	}
	return fmt.Sprintf("unsupported compression codec %q: %s", e.ID, e.Detail)
}

// ByName returns a built-in codec by its numcodecs id.
// The empty id means no compression.
func ByName(id string) (Codec, error) {
	switch id {
	case "", "raw":
		return Raw{}, nil
	case "zlib":
		return Zlib{}, nil
	case "gzip":
		return Gzip{}, nil
	case "zstd":
		return Zstd{}, nil
	case "lz4":
		return LZ4{}, nil
	case "blosc":
		return Blosc{}, nil
	default:
		return nil, &UnsupportedCodecError{ID: id}
	}
}

// Raw is the identity codec (compressor: null).
type Raw struct{}

// Decode returns data unchanged.
func (Raw) Decode(data []byte) ([]byte, error) { return data, nil }

// Name implements Codec.
func (Raw) Name() string { return "raw" }
