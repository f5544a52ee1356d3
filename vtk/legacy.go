package vtk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const legacyVersionLine = "# vtk DataFile Version 3.0"

// WriteLegacy writes the image in the legacy .vtk STRUCTURED_POINTS
// format. Binary mode stores scalars big-endian, as the format
// requires; ascii renders one value per token.
func WriteLegacy(w io.Writer, img *ImageData, ascii bool) error {
	typeName, err := scalarTypeName(img.Dtype)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	mode := "BINARY"
	if ascii {
		mode = "ASCII"
	}

	fmt.Fprintf(bw, "%s\n%s\n%s\n", legacyVersionLine, img.Name, mode)
	fmt.Fprintf(bw, "DATASET STRUCTURED_POINTS\n")
	fmt.Fprintf(bw, "DIMENSIONS %d %d %d\n", img.Dims[0], img.Dims[1], img.Dims[2])
	fmt.Fprintf(bw, "SPACING %g %g %g\n", img.Spacing[0], img.Spacing[1], img.Spacing[2])
	fmt.Fprintf(bw, "ORIGIN %g %g %g\n", img.Origin[0], img.Origin[1], img.Origin[2])
	fmt.Fprintf(bw, "POINT_DATA %d\n", img.PointCount())
	fmt.Fprintf(bw, "SCALARS %s %s 1\n", img.Name, typeName)
	fmt.Fprintf(bw, "LOOKUP_TABLE default\n")

	if ascii {
		if err := writeASCIIValues(bw, img); err != nil {
			return err
		}
	} else {
		data := swapToOrder(img.Data, img.Dtype.ItemSize(), img.Dtype.BigEndian(), true)
		if _, err := bw.Write(data); err != nil {
			return err
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func writeASCIIValues(w *bufio.Writer, img *ImageData) error {
	itemSize := img.Dtype.ItemSize()
	var order binary.ByteOrder = binary.LittleEndian
	if img.Dtype.BigEndian() {
		order = binary.BigEndian
	}

	const perLine = 9
	var sb strings.Builder
	for i, off := 0, 0; off+itemSize <= len(img.Data); i, off = i+1, off+itemSize {
		sb.WriteString(formatValue(img.Data[off:off+itemSize], img.Dtype.Kind, order))
		if (i+1)%perLine == 0 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
		if sb.Len() > 1<<14 {
			if _, err := w.WriteString(sb.String()); err != nil {
				return err
			}
			sb.Reset()
		}
	}
	sb.WriteByte('\n')
	_, err := w.WriteString(sb.String())
	return err
}

func formatValue(elem []byte, kind byte, order binary.ByteOrder) string {
	u := readUint(elem, order)
	switch kind {
	case 'f':
		var f float64
		if len(elem) == 4 {
			f = float64(math.Float32frombits(uint32(u)))
		} else {
			f = math.Float64frombits(u)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case 'i':
		shift := uint(64 - len(elem)*8)
		return strconv.FormatInt(int64(u<<shift)>>shift, 10)
	default:
		return strconv.FormatUint(u, 10)
	}
}

func readUint(elem []byte, order binary.ByteOrder) uint64 {
	switch len(elem) {
	case 1:
		return uint64(elem[0])
	case 2:
		return uint64(order.Uint16(elem))
	case 4:
		return uint64(order.Uint32(elem))
	default:
		return order.Uint64(elem)
	}
}

// WriteLegacyFile writes a .vtk file. The extension is checked before
// anything is opened or written.
func WriteLegacyFile(path string, img *ImageData, ascii bool) error {
	if !strings.HasSuffix(path, ".vtk") {
		return &ErrBadExtension{Filename: path, Want: ".vtk"}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLegacy(f, img, ascii); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
