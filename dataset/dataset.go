// Package dataset adapts Zarr arrays into labeled, coordinate-aware
// datasets: named dimensions, physical coordinates in meters derived
// from nanometer voxel spacing, and carried-over attributes.
package dataset

import (
	"context"
	"fmt"

	"github.com/voxelio/zarrutil/zarr"
)

// DefaultVarName is the variable name assigned when none is given.
const DefaultVarName = "values"

// ErrUnsupportedRank indicates an array whose dimensionality has no
// dimension-label mapping.
type ErrUnsupportedRank struct {
	Rank  int
	Shape []int
}

func (e *ErrUnsupportedRank) Error() string {
	return fmt.Sprintf("unsupported array dimensionality: %dD (shape: %v)", e.Rank, e.Shape)
}

// DataArray is one labeled variable: a C-order buffer with named
// dimensions and per-dimension coordinates.
type DataArray struct {
	Name   string
	Dims   []string
	Shape  []int
	Coords map[string][]float64
	Attrs  map[string]any
	Dtype  zarr.Dtype
	Data   []byte
}

// Dim returns the size of the named dimension, or 0 if absent.
func (a *DataArray) Dim(name string) int {
	for i, d := range a.Dims {
		if d == name {
			return a.Shape[i]
		}
	}
	return 0
}

// Dataset is a labeled dataset holding one variable plus dataset-level
// attributes (source locator, voxel spacing).
type Dataset struct {
	Variable *DataArray
	Attrs    map[string]any
}

// Options configures FromArray.
type Options struct {
	// VarName names the variable; defaults to "values".
	VarName string
	// WithCoords attaches physical coordinates. Enabled by default
	// through FromArray.
	WithCoords bool
	// Default is the fallback voxel spacing; zero means DefaultSpacing.
	Default Spacing
}

// FromArray adapts an opened Zarr array into a labeled dataset.
//
// Dimension labels by rank: 2D arrays are (y, x) and are promoted to
// (z, y, x) with a unit z dimension; 3D arrays are (z, y, x); 4D arrays
// are (c, z, y, x) with the channel dimension first. Any other rank
// fails with *ErrUnsupportedRank before any chunk is read.
//
// Spatial coordinates are index * spacing_nm * 1e-9 (meters); channel
// coordinates are plain indices.
func FromArray(ctx context.Context, a *zarr.Array, opts Options) (*Dataset, error) {
	ndim := len(a.Meta.Shape)
	if ndim < 2 || ndim > 4 {
		return nil, &ErrUnsupportedRank{Rank: ndim, Shape: a.Meta.Shape}
	}
	if opts.VarName == "" {
		opts.VarName = DefaultVarName
	}
	def := opts.Default
	if def == (Spacing{}) {
		def = DefaultSpacing
	}

	spacing := VoxelSpacing(a.Attrs, def)

	data, err := a.Read(ctx)
	if err != nil {
		return nil, err
	}

	var (
		dims  []string
		shape []int
	)
	switch ndim {
	case 2:
		dims = []string{"z", "y", "x"}
		shape = append([]int{1}, a.Meta.Shape...)
	case 3:
		dims = []string{"z", "y", "x"}
		shape = a.Meta.Shape
	case 4:
		dims = []string{"c", "z", "y", "x"}
		shape = a.Meta.Shape
	}

	// per-dimension spacing aligned with dims; channel axes get none
	dimSpacing := map[string]float64{"z": spacing[0], "y": spacing[1], "x": spacing[2]}

	var coords map[string][]float64
	if opts.WithCoords {
		coords = make(map[string][]float64, len(dims))
		for i, dim := range dims {
			n := shape[i]
			c := make([]float64, n)
			if dim == "c" {
				for j := range c {
					c[j] = float64(j)
				}
			} else {
				for j := range c {
					c[j] = float64(j) * dimSpacing[dim] * 1e-9
				}
			}
			coords[dim] = c
		}
	}

	attrs := make(map[string]any, len(a.Attrs)+1)
	for k, v := range a.Attrs {
		attrs[k] = v
	}
	attrs["zarr_chunks"] = a.Meta.Chunks

	v := &DataArray{
		Name:   opts.VarName,
		Dims:   dims,
		Shape:  shape,
		Coords: coords,
		Attrs:  attrs,
		Dtype:  a.Meta.Dtype,
		Data:   data,
	}
	return &Dataset{
		Variable: v,
		Attrs: map[string]any{
			"voxel_spacing_nm": spacing,
		},
	}, nil
}
