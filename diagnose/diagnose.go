package diagnose

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/voxelio/zarrutil"
	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

// DefaultWorkers bounds the parallel occupancy probes.
const DefaultWorkers = 4

// ArrayDiagnostics describes one array: its metadata plus how many of
// its chunks are actually present in the store.
type ArrayDiagnostics struct {
	Info          zarrutil.ArrayInfo `json:"info"`
	ChunkCount    uint64             `json:"chunk_count"`
	PresentChunks uint64             `json:"present_chunks"`
}

// Occupancy returns the present-chunk fraction in [0, 1].
func (d ArrayDiagnostics) Occupancy() float64 {
	if d.ChunkCount == 0 {
		return 0
	}
	return float64(d.PresentChunks) / float64(d.ChunkCount)
}

// Report is the result of DiagnoseStore.
type Report struct {
	Locator         string                      `json:"locator"`
	StoreType       string                      `json:"store_type"`
	Accessible      bool                        `json:"accessible"`
	KeyCount        int                         `json:"key_count,omitempty"`
	HasConsolidated bool                        `json:"has_consolidated"`
	Issues          []string                    `json:"issues"`
	Suggestions     []string                    `json:"suggestions"`
	Arrays          map[string]ArrayDiagnostics `json:"arrays"`
	Operations      []Operation                 `json:"-"`
}

func (r *Report) addIssue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) suggest(s string) {
	r.Suggestions = append(r.Suggestions, s)
}

// StoreTypeName names the backend a locator resolves to.
func StoreTypeName(locator string) string {
	switch store.Scheme(locator) {
	case "s3":
		return "S3"
	case "gs":
		return "Google Cloud Storage"
	case "az":
		return "Azure Blob Storage"
	case "http", "https":
		return "HTTP"
	default:
		return "Local filesystem"
	}
}

// Options configures DiagnoseStore.
type Options struct {
	// Workers bounds the parallel occupancy probes; zero means
	// DefaultWorkers.
	Workers int
	// SkipOccupancy disables the per-chunk presence scan, which lists
	// every key under each array.
	SkipOccupancy bool
	// Tracker receives operation timings; nil creates a silent one.
	Tracker *Tracker
}

// DiagnoseStore runs a deep health check on the store at locator:
// accessibility, sidecar presence, opening-strategy probes, per-array
// metadata and a chunk-occupancy scan.
//
// Only the occupancy scan runs in parallel; everything else is
// sequential. The returned report is never nil when err is nil, even
// if the store turned out to be inaccessible.
func DiagnoseStore(ctx context.Context, client *zarrutil.Client, locator string, opts Options) (*Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTracker(nil)
	}

	report := &Report{
		Locator:   locator,
		StoreType: StoreTypeName(locator),
		Arrays:    map[string]ArrayDiagnostics{},
	}

	var st store.Store
	err := tracker.Track(ctx, "open store", func() error {
		var err error
		st, err = client.OpenStore(ctx, locator)
		return err
	})
	if err != nil {
		report.addIssue("cannot access store: %v", err)
		report.suggest("Verify the store locator is correct")
		report.Operations = tracker.Operations()
		return report, nil
	}
	defer st.Close()

	err = tracker.Track(ctx, "list keys", func() error {
		keys, err := st.List(ctx, "")
		if err != nil {
			return err
		}
		report.Accessible = true
		report.KeyCount = len(keys)
		return nil
	})
	if err != nil {
		report.addIssue("cannot list keys: %v", err)
		report.suggest("Check permissions and credentials")
	}

	var node *zarr.Node
	err = tracker.Track(ctx, "probe consolidated metadata", func() error {
		g, err := zarr.OpenConsolidated(ctx, st)
		if err != nil {
			return err
		}
		report.HasConsolidated = true
		node = &zarr.Node{Group: g}
		return nil
	})
	if err != nil {
		report.addIssue("missing consolidated metadata (%s)", zarr.KeyConsolidated)
		report.suggest("Run Consolidate to create the sidecar")

		err = tracker.Track(ctx, "probe fallback strategies", func() error {
			var err error
			node, err = zarr.Open(ctx, st)
			return err
		})
		if err != nil {
			report.addIssue("store cannot be opened: %v", err)
			report.suggest("Verify this is actually a Zarr store")
			report.Operations = tracker.Operations()
			return report, nil
		}
	}

	arrays := map[string]*zarr.Array{}
	if node.Array != nil {
		arrays[zarrutil.SingleArrayPath] = node.Array
	} else {
		err = node.Group.Walk(ctx, func(path string, a *zarr.Array) error {
			arrays[path] = a
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for path, a := range arrays {
		g.Go(func() error {
			diag := ArrayDiagnostics{
				Info: zarrutil.ArrayInfo{
					Path:      path,
					Shape:     a.Meta.Shape,
					Chunks:    a.Meta.Chunks,
					Dtype:     a.Meta.Dtype.String(),
					SizeBytes: a.SizeBytes(),
				},
			}
			grid := zarr.GridShape(a.Meta.Shape, a.Meta.Chunks)
			diag.ChunkCount = 1
			for _, n := range grid {
				diag.ChunkCount *= uint64(n)
			}

			if !opts.SkipOccupancy {
				start := time.Now()
				present, err := chunkOccupancy(gctx, st, a, grid)
				tracker.Record(gctx, "occupancy scan "+path, time.Since(start), err)
				if err != nil {
					mu.Lock()
					report.addIssue("occupancy scan failed for '%s': %v", path, err)
					mu.Unlock()
				} else {
					diag.PresentChunks = present.GetCardinality()
				}
			}

			mu.Lock()
			report.Arrays[path] = diag
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for path, diag := range report.Arrays {
		if !opts.SkipOccupancy && diag.PresentChunks == 0 && diag.ChunkCount > 0 {
			report.addIssue("array '%s' has no chunks written", path)
		}
	}
	sort.Strings(report.Issues)

	report.Operations = tracker.Operations()
	return report, nil
}

// chunkOccupancy builds a bitmap of the linearized chunk indices that
// exist in the store for one array.
func chunkOccupancy(ctx context.Context, st store.Store, a *zarr.Array, grid []int) (*roaring64.Bitmap, error) {
	prefix := ""
	if a.Path != "" {
		prefix = a.Path + "/"
	}
	keys, err := st.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	// row-major strides over the chunk grid
	strides := make([]uint64, len(grid))
	acc := uint64(1)
	for d := len(grid) - 1; d >= 0; d-- {
		strides[d] = acc
		acc *= uint64(grid[d])
	}

	sep := a.Meta.Separator()
	present := roaring64.New()
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		idx, ok := parseChunkKey(rel, sep, grid)
		if !ok {
			continue
		}
		linear := uint64(0)
		for d, i := range idx {
			linear += uint64(i) * strides[d]
		}
		present.Add(linear)
	}
	return present, nil
}

// parseChunkKey parses a relative store key as a chunk coordinate,
// rejecting metadata keys, nested paths and out-of-grid indices.
func parseChunkKey(rel, sep string, grid []int) ([]int, bool) {
	if rel == "" || strings.HasPrefix(rel, ".") {
		return nil, false
	}
	if sep != "/" && strings.Contains(rel, "/") {
		return nil, false
	}

	parts := strings.Split(rel, sep)
	if len(parts) != len(grid) {
		// 0-d arrays store their single chunk under "0"
		if len(grid) == 0 && rel == "0" {
			return []int{}, true
		}
		return nil, false
	}

	idx := make([]int, len(parts))
	for d, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= grid[d] {
			return nil, false
		}
		idx[d] = n
	}
	return idx, true
}
