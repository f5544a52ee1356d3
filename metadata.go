package zarrutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

// RootGroupPath is the report key for the root group.
const RootGroupPath = "/"

// ArrayReport describes one array in a validation report.
type ArrayReport struct {
	Shape       []int    `json:"shape"`
	Dtype       string   `json:"dtype"`
	Chunks      []int    `json:"chunks"`
	Compression string   `json:"compression"`
	Issues      []string `json:"issues,omitempty"`
}

// GroupReport describes one group in a validation report.
type GroupReport struct {
	AttrCount int      `json:"attr_count"`
	Issues    []string `json:"issues,omitempty"`
}

// ValidationReport is the result of Validate. Valid holds exactly when
// Issues is empty.
type ValidationReport struct {
	Valid           bool                   `json:"valid"`
	HasConsolidated bool                   `json:"has_consolidated"`
	Issues          []string               `json:"issues"`
	Arrays          map[string]ArrayReport `json:"arrays"`
	Groups          map[string]GroupReport `json:"groups"`
}

func (r *ValidationReport) addIssue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// arraysMissingUnits returns the paths of arrays flagged for units
// backfill, sorted.
func (r *ValidationReport) arraysMissingUnits() []string {
	var paths []string
	for path, ar := range r.Arrays {
		for _, issue := range ar.Issues {
			if issue == issueNoUnits {
				paths = append(paths, path)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// RepairReport lists the actions Repair took.
type RepairReport struct {
	Actions []string `json:"actions"`
	Skipped []string `json:"skipped,omitempty"`
}

const issueNoUnits = "no units specified in attributes"

// Consolidate creates or returns the ".zmetadata" sidecar for the
// store at locator.
//
// A sidecar that already exists and parses is returned unchanged, so
// the operation is idempotent and a second call observes identical
// bytes. With dryRun the store is scanned and the entry count logged,
// but nothing is written and an empty document is returned.
func (c *Client) Consolidate(ctx context.Context, locator string, dryRun bool) (doc *zarr.ConsolidatedMetadata, err error) {
	start := time.Now()
	defer func() {
		entries := 0
		if doc != nil {
			entries = len(doc.Metadata)
		}
		c.opts.metricsCollector.RecordConsolidate(entries, time.Since(start), err)
		c.opts.logger.LogConsolidate(ctx, locator, entries, dryRun, err)
	}()

	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	doc, err = consolidate(ctx, st, dryRun, c.opts.logger.WithLocator(locator))
	if err != nil {
		return nil, translateError(err)
	}
	return doc, nil
}

func consolidate(ctx context.Context, st store.Store, dryRun bool, log *Logger) (*zarr.ConsolidatedMetadata, error) {
	if data, err := st.Get(ctx, zarr.KeyConsolidated); err == nil {
		if doc, perr := zarr.ParseConsolidated(data); perr == nil {
			log.Debug("consolidated metadata already present", "entries", len(doc.Metadata))
			return doc, nil
		}
		log.Warn("existing consolidated metadata is invalid, rebuilding")
	}

	doc, err := zarr.BuildConsolidated(ctx, st)
	if err != nil {
		return nil, err
	}

	if dryRun {
		log.Info("dry run, consolidated metadata not written", "entries", len(doc.Metadata))
		return &zarr.ConsolidatedMetadata{
			Format:   zarr.ConsolidatedFormat,
			Metadata: map[string]json.RawMessage{},
		}, nil
	}

	if err := zarr.WriteConsolidated(ctx, st, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the store's metadata and reports every issue found:
// a missing or unparseable sidecar, groups without attributes, and
// arrays without a units attribute. The store is not modified.
func (c *Client) Validate(ctx context.Context, locator string) (report *ValidationReport, err error) {
	start := time.Now()
	defer func() {
		issues := 0
		if report != nil {
			issues = len(report.Issues)
		}
		valid := report != nil && report.Valid
		c.opts.metricsCollector.RecordValidate(issues, time.Since(start), err)
		c.opts.logger.LogValidate(ctx, locator, valid, issues, err)
	}()

	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	report, err = validate(ctx, st, c.opts.logger)
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

func validate(ctx context.Context, st store.Store, logger *Logger) (*ValidationReport, error) {
	report := &ValidationReport{
		Arrays: map[string]ArrayReport{},
		Groups: map[string]GroupReport{},
	}

	if data, err := st.Get(ctx, zarr.KeyConsolidated); err == nil {
		report.HasConsolidated = true
		if _, perr := zarr.ParseConsolidated(data); perr != nil {
			report.addIssue("invalid consolidated metadata: %v", perr)
		}
	} else if errors.Is(err, store.ErrNotFound) {
		report.addIssue("missing consolidated metadata (%s)", zarr.KeyConsolidated)
	} else {
		return nil, err
	}

	node, err := zarr.Open(ctx, st)
	if err != nil {
		report.addIssue("error opening store: %v", err)
		report.Valid = false
		return report, nil
	}

	if node.Array != nil {
		checkArray(report, SingleArrayPath, node.Array)
	} else {
		node.Group.Logger = logger.Logger
		if err := checkGroup(ctx, report, node.Group); err != nil {
			return nil, err
		}
	}

	report.Valid = len(report.Issues) == 0
	return report, nil
}

func checkGroup(ctx context.Context, report *ValidationReport, g *zarr.Group) error {
	path := g.Path
	if path == "" {
		path = RootGroupPath
	}

	gr := GroupReport{AttrCount: len(g.Attrs)}
	if len(g.Attrs) == 0 {
		gr.Issues = append(gr.Issues, "no attributes")
		report.addIssue("group '%s' has no attributes", path)
	}
	report.Groups[path] = gr

	arrays, groups, err := g.Children(ctx)
	if err != nil {
		return err
	}
	for _, name := range arrays {
		a, err := g.ChildArray(ctx, name)
		if err != nil {
			report.addIssue("error opening array '%s': %v", name, err)
			continue
		}
		checkArray(report, a.Path, a)
	}
	for _, name := range groups {
		sub, err := g.ChildGroup(ctx, name)
		if err != nil {
			report.addIssue("error opening group '%s': %v", name, err)
			continue
		}
		if err := checkGroup(ctx, report, sub); err != nil {
			return err
		}
	}
	return nil
}

func checkArray(report *ValidationReport, path string, a *zarr.Array) {
	ar := ArrayReport{
		Shape:       a.Meta.Shape,
		Dtype:       a.Meta.Dtype.String(),
		Chunks:      a.Meta.Chunks,
		Compression: a.Meta.CompressorID(),
	}

	_, hasUnits := a.Attrs["units"]
	_, hasUnit := a.Attrs["unit"]
	if !hasUnits && !hasUnit {
		ar.Issues = append(ar.Issues, issueNoUnits)
		report.addIssue("array '%s': %s", path, issueNoUnits)
	}

	report.Arrays[path] = ar
}

// Repair fixes the issues Validate finds. A store that is already
// valid and consolidated is left untouched. Otherwise the sidecar is
// rebuilt if missing, and with backfillAttrs every array without a
// units attribute gets the configured default value. Attribute
// backfill on remote locators is skipped with a warning, because the
// anonymous remote mounts the repair path targets are read-only.
func (c *Client) Repair(ctx context.Context, locator string, backfillAttrs bool) (result *RepairReport, err error) {
	start := time.Now()
	defer func() {
		actions := 0
		if result != nil {
			actions = len(result.Actions)
		}
		c.opts.metricsCollector.RecordRepair(actions, time.Since(start), err)
		c.opts.logger.LogRepair(ctx, locator, actions, err)
	}()

	log := c.opts.logger.WithLocator(locator)

	st, err := c.OpenStore(ctx, locator)
	if err != nil {
		return nil, translateError(err)
	}
	defer st.Close()

	report, err := validate(ctx, st, c.opts.logger)
	if err != nil {
		return nil, translateError(err)
	}

	result = &RepairReport{}
	if report.Valid && report.HasConsolidated {
		log.Info("no repairs needed, metadata is valid")
		return result, nil
	}

	wroteAttrs := false
	if backfillAttrs {
		missing := report.arraysMissingUnits()
		switch {
		case len(missing) == 0:
		case store.IsRemote(locator):
			log.Warn("cannot add attributes to read-only remote store",
				"arrays", len(missing))
			result.Skipped = append(result.Skipped,
				fmt.Sprintf("units backfill for %d arrays (remote store)", len(missing)))
		default:
			for _, path := range missing {
				a, err := openReportedArray(ctx, st, path)
				if err != nil {
					log.Warn("failed to open array for backfill", "path", path, "error", err)
					continue
				}
				if err := a.SetAttr(ctx, "units", c.opts.defaultUnits); err != nil {
					log.Warn("failed to update array", "path", path, "error", err)
					continue
				}
				wroteAttrs = true
				result.Actions = append(result.Actions,
					fmt.Sprintf("added units=%q to array '%s'", c.opts.defaultUnits, path))
			}
		}
	}

	// Rebuild the sidecar after attribute writes so it reflects them.
	if !report.HasConsolidated || wroteAttrs {
		doc, err := zarr.BuildConsolidated(ctx, st)
		if err != nil {
			return nil, translateError(err)
		}
		if err := zarr.WriteConsolidated(ctx, st, doc); err != nil {
			return nil, translateError(err)
		}
		result.Actions = append(result.Actions,
			fmt.Sprintf("wrote consolidated metadata (%d entries)", len(doc.Metadata)))
	}

	return result, nil
}

// openReportedArray resolves a validation-report path back to an
// array. The synthetic single-array path maps to the store root.
func openReportedArray(ctx context.Context, st store.Store, path string) (*zarr.Array, error) {
	if path == SingleArrayPath {
		if a, err := zarr.OpenArray(ctx, st, ""); err == nil {
			return a, nil
		}
	}
	return zarr.OpenArray(ctx, st, path)
}
