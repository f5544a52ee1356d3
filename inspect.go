package zarrutil

import (
	"context"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

// SingleArrayPath is the synthetic path assigned to the array of a
// store that is a bare array rather than a group hierarchy.
const SingleArrayPath = "array"

// ArrayInfo describes one array found in a store.
type ArrayInfo struct {
	Path      string `json:"path"`
	Shape     []int  `json:"shape"`
	Chunks    []int  `json:"chunks"`
	Dtype     string `json:"dtype"`
	SizeBytes int64  `json:"size_bytes"`
}

// HumanSize returns the logical size in humanized form ("1.2 GB").
func (a ArrayInfo) HumanSize() string {
	return humanize.Bytes(uint64(a.SizeBytes))
}

// StoreSummary aggregates the discovery result for one store.
type StoreSummary struct {
	Locator         string      `json:"locator"`
	Arrays          []ArrayInfo `json:"arrays"`
	TotalBytes      int64       `json:"total_bytes"`
	HasConsolidated bool        `json:"has_consolidated"`
}

// HumanTotal returns the total logical size in humanized form.
func (s *StoreSummary) HumanTotal() string {
	return humanize.Bytes(uint64(s.TotalBytes))
}

func infoFromArray(path string, a *zarr.Array) ArrayInfo {
	return ArrayInfo{
		Path:      path,
		Shape:     a.Meta.Shape,
		Chunks:    a.Meta.Chunks,
		Dtype:     a.Meta.Dtype.String(),
		SizeBytes: a.SizeBytes(),
	}
}

// ListArrays discovers every array in the store at locator and returns
// them sorted by logical size, largest first. A store that is a bare
// array yields a single entry with the synthetic path "array".
func (c *Client) ListArrays(ctx context.Context, locator string) (infos []ArrayInfo, err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordList(len(infos), time.Since(start), err)
		c.opts.logger.LogList(ctx, locator, len(infos), err)
	}()

	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	infos, err = listArrays(ctx, st, c.opts.logger)
	if err != nil {
		return nil, translateError(err)
	}
	return infos, nil
}

func listArrays(ctx context.Context, st store.Store, logger *Logger) ([]ArrayInfo, error) {
	node, err := zarr.Open(ctx, st)
	if err != nil {
		return nil, err
	}

	var infos []ArrayInfo
	if node.Array != nil {
		infos = append(infos, infoFromArray(SingleArrayPath, node.Array))
	} else {
		node.Group.Logger = logger.Logger
		err = node.Group.Walk(ctx, func(path string, a *zarr.Array) error {
			infos = append(infos, infoFromArray(path, a))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].SizeBytes != infos[j].SizeBytes {
			return infos[i].SizeBytes > infos[j].SizeBytes
		}
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}

// Inspect summarizes the store at locator and logs a humanized
// per-array report.
func (c *Client) Inspect(ctx context.Context, locator string) (*StoreSummary, error) {
	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	infos, err := listArrays(ctx, st, c.opts.logger)
	if err != nil {
		return nil, translateError(err)
	}

	summary := &StoreSummary{Locator: locator, Arrays: infos}
	for _, info := range infos {
		summary.TotalBytes += info.SizeBytes
	}
	summary.HasConsolidated, err = st.Contains(ctx, zarr.KeyConsolidated)
	if err != nil {
		return nil, translateError(err)
	}

	log := c.opts.logger.WithLocator(locator)
	log.Info("store summary",
		"arrays", len(summary.Arrays),
		"total_size", summary.HumanTotal(),
		"consolidated", summary.HasConsolidated,
	)
	for _, info := range summary.Arrays {
		log.Info("array",
			"path", info.Path,
			"shape", info.Shape,
			"dtype", info.Dtype,
			"size", info.HumanSize(),
		)
	}
	return summary, nil
}
