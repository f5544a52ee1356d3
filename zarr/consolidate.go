package zarr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxelio/zarrutil/store"
)

// isMetadataKey reports whether a store key belongs in the consolidated
// sidecar.
func isMetadataKey(key string) bool {
	base := key
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		base = key[i+1:]
	}
	switch base {
	case KeyArray, KeyGroup, KeyAttrs:
		return key == base || strings.HasSuffix(key, "/"+base)
	}
	return false
}

// BuildConsolidated scans the store and aggregates every metadata key
// into a fresh consolidated document. Each entry must be valid JSON.
func BuildConsolidated(ctx context.Context, st store.Store) (*ConsolidatedMetadata, error) {
	keys, err := st.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list store: %w", err)
	}

	doc := &ConsolidatedMetadata{
		Format:   ConsolidatedFormat,
		Metadata: map[string]json.RawMessage{},
	}
	for _, key := range keys {
		if key == KeyConsolidated || !isMetadataKey(key) {
			continue
		}
		data, err := st.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("metadata key %s holds invalid JSON", key)
		}
		doc.Metadata[key] = json.RawMessage(data)
	}
	return doc, nil
}

// WriteConsolidated persists the document at the store's ".zmetadata".
func WriteConsolidated(ctx context.Context, st store.Store, doc *ConsolidatedMetadata) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := st.Put(ctx, KeyConsolidated, data); err != nil {
		return fmt.Errorf("write %s: %w", KeyConsolidated, err)
	}
	return nil
}
