// Package zarrutil provides a convenience layer over Zarr chunked-array
// stores: discovery, metadata lifecycle and conversion adapters.
//
// Zarr stores in the wild are frequently missing their consolidated
// metadata sidecar, carry incomplete attributes, or sit behind remote
// object stores that make every metadata probe a network round trip.
// This package diagnoses and repairs those problems, and adapts store
// contents into labeled datasets and VTK volumes.
//
// # Quick Start
//
// Discovery:
//
//	ctx := context.Background()
//	client := zarrutil.New()
//	arrays, _ := client.ListArrays(ctx, "./data.zarr")
//	for _, a := range arrays {
//	    fmt.Println(a.Path, a.Shape, a.Dtype)
//	}
//
// Public bucket access:
//
//	client := zarrutil.New(zarrutil.WithAnonymous())
//	summary, _ := client.Inspect(ctx, "s3://bucket/volume.zarr")
//
// # Metadata Lifecycle
//
// The common "missing .zmetadata" failure is repaired in place:
//
//	doc, _ := client.Consolidate(ctx, "./data.zarr", false)
//	report, _ := client.Validate(ctx, "./data.zarr")
//	if !report.Valid {
//	    client.Repair(ctx, "./data.zarr", true)
//	}
//
// Consolidation is idempotent: a store whose sidecar already parses is
// returned unchanged, and a dry run persists nothing.
//
// # Adapters
//
// Arrays become labeled datasets with physical coordinates derived from
// voxel-spacing attributes, and 3D volumes export to VTK:
//
//	ds, _ := client.OpenDataset(ctx, "./data.zarr", "")
//	img, _ := vtk.FromDataArray(ds.Variable)
//	vtk.WriteFile("volume.vti", img)
//
// # Storage Backends
//
// Locators resolve by scheme: bare paths and file:// open the local
// filesystem, s3:// opens S3 (or MinIO when an endpoint is configured),
// gs:// opens GCS, and http(s):// opens a read-only web store.
package zarrutil
