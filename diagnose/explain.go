package diagnose

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/voxelio/zarrutil/codec"
	"github.com/voxelio/zarrutil/dataset"
	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

// Explain maps an error to a human explanation with concrete
// suggestions. context entries (e.g. "operation", "locator") are
// appended to the output. Typed errors from this module classify
// exactly; anything else falls back to message heuristics.
func Explain(err error, context map[string]string) string {
	var explanations, suggestions []string

	lower := strings.ToLower(err.Error())

	var ose *zarr.OpenStoreError
	var uce *codec.UnsupportedCodecError
	var ure *dataset.ErrUnsupportedRank
	var use *store.UnknownSchemeError
	switch {
	case errors.As(err, &ose):
		explanations = append(explanations, "The location could not be opened as a Zarr store by any strategy.")
		suggestions = append(suggestions,
			"Verify this is actually a Zarr store",
			"Check each strategy's reason in the error detail",
		)

	case errors.As(err, &uce):
		explanations = append(explanations, fmt.Sprintf("The array uses the %q codec, which is not supported.", uce.ID))
		suggestions = append(suggestions,
			"Re-write the store with a supported compressor (zlib, gzip, zstd, lz4, blosc)",
			"Check the compressor with Validate or Inspect",
		)

	case errors.As(err, &ure):
		explanations = append(explanations, fmt.Sprintf("The array is %dD; only 2D, 3D and 4D arrays have a dimension-label mapping.", ure.Rank))
		suggestions = append(suggestions,
			"Select a lower-dimensional slice or group member",
			"Check array shapes with ListArrays",
		)

	case errors.As(err, &use):
		explanations = append(explanations, fmt.Sprintf("The %q scheme has no storage backend.", use.Scheme))
		suggestions = append(suggestions,
			"Use s3://, gs://, http(s):// or a local path",
			"For S3-compatible endpoints, configure WithEndpoint",
		)

	case strings.Contains(lower, ".zmetadata"):
		explanations = append(explanations, "The Zarr store is missing consolidated metadata.")
		suggestions = append(suggestions,
			"Run Consolidate on the store",
			"Or open without consolidation via the group fallback",
		)

	case strings.Contains(lower, "permission") || strings.Contains(lower, "forbidden") || strings.Contains(lower, "access denied"):
		explanations = append(explanations, "You don't have permission to access this store.")
		suggestions = append(suggestions,
			"Check your credentials (AWS_ACCESS_KEY_ID, etc.)",
			"For public buckets, use WithAnonymous",
			"Verify the bucket/path exists and is accessible",
		)

	case errors.Is(err, store.ErrNotFound) || strings.Contains(lower, "not found") || strings.Contains(lower, "no such"):
		explanations = append(explanations, "The specified Zarr store or array doesn't exist.")
		suggestions = append(suggestions,
			"Check the path/URL for typos",
			"Ensure the store exists at the specified location",
			"For S3, verify the bucket name and key",
		)

	case strings.Contains(lower, "codec") || strings.Contains(lower, "compressor"):
		explanations = append(explanations, "The Zarr array uses a compression codec that isn't available.")
		suggestions = append(suggestions,
			"Check which codec is needed in the array metadata",
		)

	case strings.Contains(lower, "shape") || strings.Contains(lower, "dimension"):
		explanations = append(explanations, "There's a mismatch in array dimensions or shape.")
		suggestions = append(suggestions,
			"Verify the expected dimensions match the actual array shape",
			"Use Inspect to see array shapes",
		)

	case strings.Contains(lower, "connection") || strings.Contains(lower, "timeout"):
		explanations = append(explanations, "Network connection issue when accessing a remote store.")
		suggestions = append(suggestions,
			"Check your network connection",
			"Try increasing the timeout with WithTimeout",
			"For S3, check the region setting",
		)
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if len(explanations) > 0 {
		sb.WriteString("\nWhat this means:\n")
		for _, e := range explanations {
			fmt.Fprintf(&sb, "  %s\n", e)
		}
	}
	if len(suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range suggestions {
			fmt.Fprintf(&sb, "  - %s\n", s)
		}
	}
	if len(context) > 0 {
		sb.WriteString("\nContext:\n")
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, context[k])
		}
	}
	return sb.String()
}
