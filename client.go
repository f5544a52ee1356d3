package zarrutil

import (
	"context"

	"github.com/voxelio/zarrutil/dataset"
	"github.com/voxelio/zarrutil/zarr"
)

// Interface is the operation surface of Client. Wrappers such as the
// diagnose instrumentation implement it by delegation.
type Interface interface {
	// ListArrays discovers the arrays in a store, largest first.
	ListArrays(ctx context.Context, locator string) ([]ArrayInfo, error)

	// Inspect summarizes a store: arrays, totals and sidecar presence.
	Inspect(ctx context.Context, locator string) (*StoreSummary, error)

	// Consolidate creates or returns the ".zmetadata" sidecar. With
	// dryRun the store is scanned but nothing is written.
	Consolidate(ctx context.Context, locator string, dryRun bool) (*zarr.ConsolidatedMetadata, error)

	// Validate reports metadata issues without modifying the store.
	Validate(ctx context.Context, locator string) (*ValidationReport, error)

	// Repair fixes the issues Validate finds: consolidation, and
	// optionally attribute backfill on writable stores.
	Repair(ctx context.Context, locator string, backfillAttrs bool) (*RepairReport, error)

	// OpenDataset adapts a store (or a group within it) into a labeled
	// dataset with physical coordinates.
	OpenDataset(ctx context.Context, locator, group string) (*dataset.Dataset, error)
}

// Client provides the zarrutil operations over any supported storage
// backend. The zero-value configuration uses local credentials, no
// throttling and "unknown" as the backfill units value.
//
// A Client is stateless and safe for concurrent use.
type Client struct {
	opts options
}

var _ Interface = (*Client)(nil)

// New creates a Client.
func New(optFns ...Option) *Client {
	return &Client{opts: applyOptions(optFns)}
}

// Logger returns the client's logger.
func (c *Client) Logger() *Logger { return c.opts.logger }
