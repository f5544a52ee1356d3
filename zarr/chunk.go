package zarr

import (
	"strconv"
	"strings"
)

// GridShape returns the number of chunks per dimension:
// ceil(shape[i] / chunks[i]).
func GridShape(shape, chunks []int) []int {
	grid := make([]int, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid
}

// ChunkKey builds the storage key suffix for a chunk, e.g. "1.4" for
// indices {1,4} with separator ".". Zero-dimensional arrays use "0".
func ChunkKey(indices []int, separator string) string {
	if len(indices) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, idx := range indices {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// nextChunk advances indices through the grid in row-major order.
// It returns false after the last chunk.
func nextChunk(indices, grid []int) bool {
	for d := len(indices) - 1; d >= 0; d-- {
		indices[d]++
		if indices[d] < grid[d] {
			return true
		}
		indices[d] = 0
	}
	return false
}
