package diagnose

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxelio/zarrutil"
	"github.com/voxelio/zarrutil/dataset"
	"github.com/voxelio/zarrutil/zarr"
)

// Instrumented wraps a client so that every operation is timed in a
// Tracker and every failure is logged with its explanation. The inner
// client is never mutated; callers opt in per instance.
type Instrumented struct {
	inner   zarrutil.Interface
	tracker *Tracker
	logger  *slog.Logger
}

var _ zarrutil.Interface = (*Instrumented)(nil)

// Instrument wraps inner with tracking and error explanation. A nil
// tracker gets a silent one; a nil logger disables explanation output.
func Instrument(inner zarrutil.Interface, tracker *Tracker, logger *slog.Logger) *Instrumented {
	if tracker == nil {
		tracker = NewTracker(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Instrumented{inner: inner, tracker: tracker, logger: logger}
}

// Tracker returns the wrapper's tracker for summarizing.
func (in *Instrumented) Tracker() *Tracker { return in.tracker }

func (in *Instrumented) finish(ctx context.Context, op, locator string, start time.Time, err error) {
	in.tracker.Record(ctx, op, time.Since(start), err)
	if err != nil {
		in.logger.ErrorContext(ctx, "operation failed",
			"operation", op,
			"locator", locator,
			"explanation", Explain(err, map[string]string{
				"operation": op,
				"locator":   locator,
			}),
		)
	}
}

// ListArrays implements zarrutil.Interface.
func (in *Instrumented) ListArrays(ctx context.Context, locator string) (infos []zarrutil.ArrayInfo, err error) {
	defer func(start time.Time) { in.finish(ctx, "list", locator, start, err) }(time.Now())
	return in.inner.ListArrays(ctx, locator)
}

// Inspect implements zarrutil.Interface.
func (in *Instrumented) Inspect(ctx context.Context, locator string) (summary *zarrutil.StoreSummary, err error) {
	defer func(start time.Time) { in.finish(ctx, "inspect", locator, start, err) }(time.Now())
	return in.inner.Inspect(ctx, locator)
}

// Consolidate implements zarrutil.Interface.
func (in *Instrumented) Consolidate(ctx context.Context, locator string, dryRun bool) (doc *zarr.ConsolidatedMetadata, err error) {
	defer func(start time.Time) { in.finish(ctx, "consolidate", locator, start, err) }(time.Now())
	return in.inner.Consolidate(ctx, locator, dryRun)
}

// Validate implements zarrutil.Interface.
func (in *Instrumented) Validate(ctx context.Context, locator string) (report *zarrutil.ValidationReport, err error) {
	defer func(start time.Time) { in.finish(ctx, "validate", locator, start, err) }(time.Now())
	return in.inner.Validate(ctx, locator)
}

// Repair implements zarrutil.Interface.
func (in *Instrumented) Repair(ctx context.Context, locator string, backfillAttrs bool) (result *zarrutil.RepairReport, err error) {
	defer func(start time.Time) { in.finish(ctx, "repair", locator, start, err) }(time.Now())
	return in.inner.Repair(ctx, locator, backfillAttrs)
}

// OpenDataset implements zarrutil.Interface.
func (in *Instrumented) OpenDataset(ctx context.Context, locator, group string) (ds *dataset.Dataset, err error) {
	defer func(start time.Time) { in.finish(ctx, "open dataset", locator, start, err) }(time.Now())
	return in.inner.OpenDataset(ctx, locator, group)
}
