package zarrutil_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/voxelio/zarrutil"
)

func writeStoreFile(root, key, content string) {
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Fatal(err)
	}
}

// Example_consolidate demonstrates writing the consolidated metadata
// sidecar for a store and validating the result.
func Example_consolidate() {
	dir, err := os.MkdirTemp("", "example-store")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir) // Cleanup after example

	writeStoreFile(dir, ".zgroup", `{"zarr_format": 2}`)
	writeStoreFile(dir, ".zattrs", `{"project": "demo"}`)
	writeStoreFile(dir, "raw/.zarray", `{
		"zarr_format": 2, "shape": [64, 64], "chunks": [32, 32],
		"dtype": "|u1", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`)
	writeStoreFile(dir, "raw/.zattrs", `{"units": "nm"}`)

	ctx := context.Background()
	client := zarrutil.New()

	doc, err := client.Consolidate(ctx, dir, false)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("consolidated entries:", len(doc.Metadata))

	report, err := client.Validate(ctx, dir)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("valid:", report.Valid)
	// Output:
	// consolidated entries: 4
	// valid: true
}

// Example_listArrays demonstrates listing the arrays of a store,
// largest first.
func Example_listArrays() {
	dir, err := os.MkdirTemp("", "example-store")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir) // Cleanup after example

	writeStoreFile(dir, ".zgroup", `{"zarr_format": 2}`)
	writeStoreFile(dir, "labels/.zarray", `{
		"zarr_format": 2, "shape": [16], "chunks": [16],
		"dtype": "<u8", "compressor": null, "fill_value": 0,
		"order": "C", "filters": null
	}`)

	arrays, err := zarrutil.New().ListArrays(context.Background(), dir)
	if err != nil {
		log.Fatal(err)
	}
	for _, a := range arrays {
		fmt.Printf("%s %v %s %s\n", a.Path, a.Shape, a.Dtype, a.HumanSize())
	}
	// Output: labels [16] <u8 128 B
}
