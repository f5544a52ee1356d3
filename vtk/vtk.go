// Package vtk exports 3D volumes to VTK files: the legacy
// STRUCTURED_POINTS format (.vtk) and the XML ImageData format (.vti).
package vtk

import (
	"fmt"
	"strings"

	"github.com/voxelio/zarrutil/dataset"
	"github.com/voxelio/zarrutil/zarr"
)

// ErrBadExtension indicates an output filename whose extension does
// not match the requested format. The check runs before any I/O.
type ErrBadExtension struct {
	Filename string
	Want     string
}

func (e *ErrBadExtension) Error() string {
	return fmt.Sprintf("output file %q must have the %s extension", e.Filename, e.Want)
}

// ImageData is a regular 3D grid of scalars: the VTK image model.
// Dims, Spacing and Origin are ordered (x, y, z); Data is the C-order
// (z, y, x) buffer, which is exactly VTK's x-fastest point order.
type ImageData struct {
	Dims    [3]int
	Spacing [3]float64
	Origin  [3]float64
	Name    string
	Dtype   zarr.Dtype
	Data    []byte
}

// PointCount returns the number of scalars in the grid.
func (img *ImageData) PointCount() int {
	return img.Dims[0] * img.Dims[1] * img.Dims[2]
}

// FromDataArray adapts a labeled 3D array into VTK image data.
//
// Per-axis spacing comes from the first coordinate delta when the axis
// has at least two coordinates, then from a voxel_spacing_nm attribute
// (nanometers, scaled to meters), and defaults to 1.0. The origin is
// the first coordinate value of each axis.
func FromDataArray(da *dataset.DataArray) (*ImageData, error) {
	if len(da.Dims) != 3 {
		return nil, fmt.Errorf("vtk export needs a 3D array, got %dD (%s)",
			len(da.Dims), strings.Join(da.Dims, ","))
	}
	for i, want := range []string{"z", "y", "x"} {
		if da.Dims[i] != want {
			return nil, fmt.Errorf("vtk export needs (z, y, x) dimensions, got (%s)",
				strings.Join(da.Dims, ", "))
		}
	}

	if want := int64(da.Shape[0]*da.Shape[1]*da.Shape[2]) * int64(da.Dtype.ItemSize()); int64(len(da.Data)) != want {
		return nil, fmt.Errorf("buffer holds %d bytes, shape %v needs %d", len(da.Data), da.Shape, want)
	}

	name := da.Name
	if name == "" {
		name = dataset.DefaultVarName
	}

	img := &ImageData{
		// (z, y, x) shape to (nx, ny, nz) dimensions
		Dims:  [3]int{da.Shape[2], da.Shape[1], da.Shape[0]},
		Name:  name,
		Dtype: da.Dtype,
		Data:  da.Data,
	}

	attrSpacing, haveAttr := attrSpacing(da.Attrs)
	for axis, dim := range []string{"x", "y", "z"} {
		img.Spacing[axis] = 1.0
		if coords := da.Coords[dim]; len(coords) >= 2 {
			img.Spacing[axis] = coords[1] - coords[0]
		} else if haveAttr {
			// attr spacing is (z, y, x) nanometers
			img.Spacing[axis] = attrSpacing[2-axis] * 1e-9
		}
		if coords := da.Coords[dim]; len(coords) > 0 {
			img.Origin[axis] = coords[0]
		}
	}
	return img, nil
}

func attrSpacing(attrs map[string]any) (dataset.Spacing, bool) {
	switch v := attrs["voxel_spacing_nm"].(type) {
	case dataset.Spacing:
		return v, true
	case [3]float64:
		return v, true
	default:
		return dataset.Spacing{}, false
	}
}

// scalarTypeName returns the legacy VTK scalar type keyword.
func scalarTypeName(dt zarr.Dtype) (string, error) {
	switch dt.Kind {
	case 'u':
		switch dt.Size {
		case 1:
			return "unsigned_char", nil
		case 2:
			return "unsigned_short", nil
		case 4:
			return "unsigned_int", nil
		case 8:
			return "unsigned_long", nil
		}
	case 'i':
		switch dt.Size {
		case 1:
			return "char", nil
		case 2:
			return "short", nil
		case 4:
			return "int", nil
		case 8:
			return "long", nil
		}
	case 'f':
		switch dt.Size {
		case 4:
			return "float", nil
		case 8:
			return "double", nil
		}
	case 'b':
		return "unsigned_char", nil
	}
	return "", fmt.Errorf("dtype %s has no vtk scalar type", dt)
}

// xmlTypeName returns the XML VTK DataArray type attribute.
func xmlTypeName(dt zarr.Dtype) (string, error) {
	switch dt.Kind {
	case 'u', 'b':
		switch dt.Size {
		case 1:
			return "UInt8", nil
		case 2:
			return "UInt16", nil
		case 4:
			return "UInt32", nil
		case 8:
			return "UInt64", nil
		}
	case 'i':
		switch dt.Size {
		case 1:
			return "Int8", nil
		case 2:
			return "Int16", nil
		case 4:
			return "Int32", nil
		case 8:
			return "Int64", nil
		}
	case 'f':
		switch dt.Size {
		case 4:
			return "Float32", nil
		case 8:
			return "Float64", nil
		}
	}
	return "", fmt.Errorf("dtype %s has no vtk scalar type", dt)
}

// swapToOrder returns data with element bytes in the wanted endianness,
// copying only when a swap is needed.
func swapToOrder(data []byte, itemSize int, srcBig, wantBig bool) []byte {
	if itemSize <= 1 || srcBig == wantBig {
		return data
	}
	out := make([]byte, len(data))
	for off := 0; off+itemSize <= len(data); off += itemSize {
		for k := 0; k < itemSize; k++ {
			out[off+k] = data[off+itemSize-1-k]
		}
	}
	return out
}
