package zarr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Well-known metadata keys of the Zarr v2 storage spec.
const (
	// KeyArray stores per-array configuration metadata.
	KeyArray = ".zarray"
	// KeyGroup marks a logical path as a group.
	KeyGroup = ".zgroup"
	// KeyAttrs stores userland attributes for an array or group.
	KeyAttrs = ".zattrs"
	// KeyConsolidated is the sidecar aggregating all store metadata.
	KeyConsolidated = ".zmetadata"
)

// ConsolidatedFormat is the zarr_consolidated_format version we write.
const ConsolidatedFormat = 1

// Attributes holds userland metadata for an array or group.
type Attributes map[string]any

// GroupMeta is the content of a ".zgroup" key.
type GroupMeta struct {
	ZarrFormat int `json:"zarr_format"`
}

// CompressorConfig identifies the primary compression codec of an array
// ("compressor" in ".zarray"); nil means uncompressed.
type CompressorConfig struct {
	ID      string `json:"id"`
	CName   string `json:"cname,omitempty"`
	CLevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// FilterConfig identifies a pre-compression filter codec.
type FilterConfig struct {
	ID string `json:"id"`
}

// ArrayMeta is the content of a ".zarray" key.
type ArrayMeta struct {
	ZarrFormat         int               `json:"zarr_format"`
	Shape              []int             `json:"shape"`
	Chunks             []int             `json:"chunks"`
	Dtype              Dtype             `json:"dtype"`
	Compressor         *CompressorConfig `json:"compressor"`
	FillValue          any               `json:"fill_value"`
	Order              string            `json:"order"`
	Filters            []FilterConfig    `json:"filters"`
	DimensionSeparator string            `json:"dimension_separator,omitempty"`
}

// ElemCount returns the number of elements in the array.
func (m *ArrayMeta) ElemCount() int64 {
	n := int64(1)
	for _, s := range m.Shape {
		n *= int64(s)
	}
	return n
}

// SizeBytes returns the logical (uncompressed) array size.
func (m *ArrayMeta) SizeBytes() int64 {
	return m.ElemCount() * int64(m.Dtype.ItemSize())
}

// Separator returns the chunk-key dimension separator, "." by default.
func (m *ArrayMeta) Separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// CompressorID returns the compressor codec id, or "" if uncompressed.
func (m *ArrayMeta) CompressorID() string {
	if m.Compressor == nil {
		return ""
	}
	return m.Compressor.ID
}

// ConsolidatedMetadata is the parsed ".zmetadata" sidecar: one JSON
// document aggregating every ".zarray"/".zgroup"/".zattrs" in the store.
//
// Entries are kept as raw JSON so that re-marshaling a document we read
// reproduces equivalent content, and so unknown node kinds pass through.
type ConsolidatedMetadata struct {
	Format   int                        `json:"zarr_consolidated_format"`
	Metadata map[string]json.RawMessage `json:"metadata"`
}

// ParseConsolidated parses sidecar bytes.
func ParseConsolidated(data []byte) (*ConsolidatedMetadata, error) {
	var doc ConsolidatedMetadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", KeyConsolidated, err)
	}
	if doc.Metadata == nil {
		return nil, fmt.Errorf("parse %s: missing metadata object", KeyConsolidated)
	}
	return &doc, nil
}

// Encode marshals the document. Map keys marshal sorted, so encoding is
// deterministic for a given document.
func (c *ConsolidatedMetadata) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// entry returns the raw entry for a node path and metadata key.
func (c *ConsolidatedMetadata) entry(path, key string) (json.RawMessage, bool) {
	k := key
	if path != "" {
		k = path + "/" + key
	}
	raw, ok := c.Metadata[k]
	return raw, ok
}

// ArrayPaths returns every array path in the document, sorted.
func (c *ConsolidatedMetadata) ArrayPaths() []string {
	var paths []string
	for k := range c.Metadata {
		if p, ok := strings.CutSuffix(k, "/"+KeyArray); ok {
			paths = append(paths, p)
		} else if k == KeyArray {
			paths = append(paths, "")
		}
	}
	sort.Strings(paths)
	return paths
}

// GroupPaths returns every group path in the document, sorted. The root
// group, if present, is the empty string.
func (c *ConsolidatedMetadata) GroupPaths() []string {
	var paths []string
	for k := range c.Metadata {
		if p, ok := strings.CutSuffix(k, "/"+KeyGroup); ok {
			paths = append(paths, p)
		} else if k == KeyGroup {
			paths = append(paths, "")
		}
	}
	sort.Strings(paths)
	return paths
}

// ArrayMeta parses the ".zarray" entry for path.
func (c *ConsolidatedMetadata) ArrayMeta(path string) (*ArrayMeta, error) {
	raw, ok := c.entry(path, KeyArray)
	if !ok {
		return nil, fmt.Errorf("no array at %q in consolidated metadata", path)
	}
	var m ArrayMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse consolidated %s/%s: %w", path, KeyArray, err)
	}
	return &m, nil
}

// Attrs parses the ".zattrs" entry for path; absent attrs return an
// empty map.
func (c *ConsolidatedMetadata) Attrs(path string) (Attributes, error) {
	raw, ok := c.entry(path, KeyAttrs)
	if !ok {
		return Attributes{}, nil
	}
	var attrs Attributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("parse consolidated %s/%s: %w", path, KeyAttrs, err)
	}
	return attrs, nil
}
