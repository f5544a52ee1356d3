package vtk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// WriteVTI writes the image in the XML ImageData format (.vti) with
// the scalar payload inline as base64. With compress the payload is
// deflated with vtkZLibDataCompressor framing (a single block).
func WriteVTI(w io.Writer, img *ImageData, compress bool) error {
	typeName, err := xmlTypeName(img.Dtype)
	if err != nil {
		return err
	}

	// inline payloads are declared little-endian
	data := swapToOrder(img.Data, img.Dtype.ItemSize(), img.Dtype.BigEndian(), false)

	payload, err := encodeInline(data, compress)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	compressor := ""
	if compress {
		compressor = ` compressor="vtkZLibDataCompressor"`
	}
	extent := fmt.Sprintf("0 %d 0 %d 0 %d", img.Dims[0]-1, img.Dims[1]-1, img.Dims[2]-1)

	fmt.Fprintf(bw, "<?xml version=\"1.0\"?>\n")
	fmt.Fprintf(bw, "<VTKFile type=\"ImageData\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt32\"%s>\n", compressor)
	fmt.Fprintf(bw, "  <ImageData WholeExtent=\"%s\" Origin=\"%g %g %g\" Spacing=\"%g %g %g\">\n",
		extent, img.Origin[0], img.Origin[1], img.Origin[2],
		img.Spacing[0], img.Spacing[1], img.Spacing[2])
	fmt.Fprintf(bw, "    <Piece Extent=\"%s\">\n", extent)
	fmt.Fprintf(bw, "      <PointData Scalars=\"%s\">\n", img.Name)
	fmt.Fprintf(bw, "        <DataArray type=\"%s\" Name=\"%s\" format=\"binary\">\n", typeName, img.Name)
	fmt.Fprintf(bw, "          %s\n", payload)
	fmt.Fprintf(bw, "        </DataArray>\n")
	fmt.Fprintf(bw, "      </PointData>\n")
	fmt.Fprintf(bw, "      <CellData/>\n")
	fmt.Fprintf(bw, "    </Piece>\n")
	fmt.Fprintf(bw, "  </ImageData>\n")
	fmt.Fprintf(bw, "</VTKFile>\n")
	return bw.Flush()
}

// encodeInline renders an inline binary payload. Uncompressed data is
// one base64 stream of a 4-byte length header plus the raw bytes.
// Compressed data base64-encodes the block-descriptor header and the
// deflated bytes as two concatenated streams, the way VTK readers
// expect.
func encodeInline(data []byte, compress bool) (string, error) {
	enc := base64.StdEncoding

	if !compress {
		buf := make([]byte, 4+len(data))
		binary.LittleEndian.PutUint32(buf, uint32(len(data)))
		copy(buf[4:], data)
		return enc.EncodeToString(buf), nil
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	// header: block count, block size, last block size, compressed size
	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:], 1)
	binary.LittleEndian.PutUint32(header[4:], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[8:], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[12:], uint32(compressed.Len()))

	return enc.EncodeToString(header) + enc.EncodeToString(compressed.Bytes()), nil
}

// WriteVTIFile writes a .vti file. The extension is checked before
// anything is opened or written.
func WriteVTIFile(path string, img *ImageData, compress bool) error {
	if !strings.HasSuffix(path, ".vti") {
		return &ErrBadExtension{Filename: path, Want: ".vti"}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteVTI(f, img, compress); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFile writes the image to path, picking the format from the
// extension: .vtk for legacy (binary) and .vti for XML.
func WriteFile(path string, img *ImageData) error {
	switch {
	case strings.HasSuffix(path, ".vtk"):
		return WriteLegacyFile(path, img, false)
	case strings.HasSuffix(path, ".vti"):
		return WriteVTIFile(path, img, false)
	default:
		return &ErrBadExtension{Filename: path, Want: ".vtk or .vti"}
	}
}
