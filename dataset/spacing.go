package dataset

import (
	"encoding/json"
	"strconv"

	"github.com/voxelio/zarrutil/zarr"
)

// Spacing is a voxel size in nanometers, ordered (z, y, x).
type Spacing [3]float64

// DefaultSpacing is the fallback voxel size when attributes carry none.
var DefaultSpacing = Spacing{1.0, 1.0, 1.0}

// VoxelSpacing extracts the voxel spacing in nanometers from node
// attributes. Recognized formats, in precedence order:
//
//  1. pixelResolution.dimensions: a 3-element list
//  2. a flat 3-element list under spacing, resolution, voxel_size or
//     voxelSize
//  3. per-axis scalars z/y/x with the suffixes _spacing, _resolution or
//     Resolution; all three axes must resolve
//
// A tier with non-numeric or wrong-arity values is skipped. If nothing
// matches, def is returned.
func VoxelSpacing(attrs zarr.Attributes, def Spacing) Spacing {
	if pr, ok := attrs["pixelResolution"].(map[string]any); ok {
		if s, ok := spacingFromList(pr["dimensions"]); ok {
			return s
		}
	}

	for _, key := range []string{"spacing", "resolution", "voxel_size", "voxelSize"} {
		if s, ok := spacingFromList(attrs[key]); ok {
			return s
		}
	}

	var s Spacing
	found := 0
	for i, axis := range []string{"z", "y", "x"} {
		for _, key := range []string{axis + "_spacing", axis + "_resolution", axis + "Resolution"} {
			if f, ok := toFloat(attrs[key]); ok {
				s[i] = f
				found++
				break
			}
		}
	}
	if found == 3 {
		return s
	}

	return def
}

func spacingFromList(v any) (Spacing, bool) {
	list, ok := v.([]any)
	if !ok || len(list) != 3 {
		return Spacing{}, false
	}
	var s Spacing
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return Spacing{}, false
		}
		s[i] = f
	}
	return s, true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
