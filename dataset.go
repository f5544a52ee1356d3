package zarrutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxelio/zarrutil/dataset"
	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

// preferredArrayNames is the lookup order for the data variable inside
// a group.
var preferredArrayNames = []string{"data", "values", "array", "0"}

// OpenDataset opens the store at locator, resolves group within it
// ("" for the root), and adapts the data array found there into a
// labeled dataset.
//
// The group path is tried as an array first; if it is a group, the
// member arrays are searched by the conventional names data, values,
// array and 0, falling back to the first member. Both failures are
// reported together.
func (c *Client) OpenDataset(ctx context.Context, locator, group string) (ds *dataset.Dataset, err error) {
	start := time.Now()
	defer func() {
		path := ""
		if ds != nil {
			path = ds.Variable.Name
		}
		c.opts.metricsCollector.RecordOpenDataset(time.Since(start), err)
		c.opts.logger.LogOpenDataset(ctx, locator, path, err)
	}()

	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	group = strings.Trim(group, "/")
	sourceURL := strings.TrimSuffix(locator, "/")
	if group != "" {
		sourceURL += "/" + group
	}

	a, err := resolveDataArray(ctx, st, group)
	if err != nil {
		return nil, translateError(err)
	}

	ds, err = dataset.FromArray(ctx, a, dataset.Options{WithCoords: true})
	if err != nil {
		return nil, translateError(err)
	}
	ds.Attrs["source_url"] = sourceURL
	return ds, nil
}

func resolveDataArray(ctx context.Context, st store.Store, group string) (*zarr.Array, error) {
	a, arrErr := zarr.OpenArray(ctx, st, group)
	if arrErr == nil {
		return a, nil
	}

	g, groupErr := zarr.OpenGroup(ctx, st, group)
	if groupErr != nil {
		return nil, fmt.Errorf("failed to open %q as array or group: array error: %v; group error: %v",
			group, arrErr, groupErr)
	}

	arrays, _, err := g.Children(ctx)
	if err != nil {
		return nil, err
	}
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: group %q", ErrNoArrays, group)
	}

	return g.ChildArray(ctx, pickArrayName(arrays))
}

func pickArrayName(arrays []string) string {
	for _, candidate := range preferredArrayNames {
		for _, member := range arrays {
			if member == candidate {
				return candidate
			}
		}
	}
	return arrays[0]
}
