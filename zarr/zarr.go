// Package zarr reads and repairs Zarr v2 stores through the store.Store
// abstraction: array/group metadata, attribute access, the consolidated
// metadata sidecar and whole-array chunk assembly.
//
// The package implements the storage-spec wire format only; opening
// remote locators and the high-level operations live in the root package.
package zarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/voxelio/zarrutil/store"
)

// Node is the result of opening a store root: either a group hierarchy
// or a bare single array. Exactly one field is non-nil.
type Node struct {
	Group *Group
	Array *Array
}

// Group is an opened Zarr group.
type Group struct {
	Store  store.Store
	Path   string
	Meta   GroupMeta
	Attrs  Attributes
	Logger *slog.Logger

	// cons is non-nil when the group was opened through consolidated
	// metadata; child discovery then avoids store listings.
	cons *ConsolidatedMetadata
}

// Array is an opened Zarr array.
type Array struct {
	Store store.Store
	Path  string
	Meta  ArrayMeta
	Attrs Attributes
}

// Consolidated returns the consolidated document the group was opened
// with, or nil.
func (g *Group) Consolidated() *ConsolidatedMetadata { return g.cons }

func (g *Group) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}

// OpenStrategy is one way of opening a store root. Strategies are pure:
// they either produce a node or a failure reason.
type OpenStrategy struct {
	Name string
	Open func(ctx context.Context, st store.Store) (*Node, error)
}

// DefaultStrategies is the fallback chain used by Open: consolidated
// metadata first, then a plain group, then a single array.
var DefaultStrategies = []OpenStrategy{
	{Name: "consolidated", Open: func(ctx context.Context, st store.Store) (*Node, error) {
		g, err := OpenConsolidated(ctx, st)
		if err != nil {
			return nil, err
		}
		return &Node{Group: g}, nil
	}},
	{Name: "group", Open: func(ctx context.Context, st store.Store) (*Node, error) {
		g, err := OpenGroup(ctx, st, "")
		if err != nil {
			return nil, err
		}
		return &Node{Group: g}, nil
	}},
	{Name: "array", Open: func(ctx context.Context, st store.Store) (*Node, error) {
		a, err := OpenArray(ctx, st, "")
		if err != nil {
			return nil, err
		}
		return &Node{Array: a}, nil
	}},
}

// Attempt records one failed opening strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// OpenStoreError aggregates the failure of every opening strategy.
type OpenStoreError struct {
	Attempts []Attempt
}

func (e *OpenStoreError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to open store; tried:")
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "\n  - %s: %v", a.Strategy, a.Err)
	}
	return sb.String()
}

// Open opens a store root using the default strategy chain. If every
// strategy fails, the returned error is an *OpenStoreError listing each
// strategy's failure reason.
func Open(ctx context.Context, st store.Store) (*Node, error) {
	return OpenWith(ctx, st, DefaultStrategies)
}

// OpenWith runs an explicit strategy chain in order until one succeeds.
func OpenWith(ctx context.Context, st store.Store, strategies []OpenStrategy) (*Node, error) {
	openErr := &OpenStoreError{}
	for _, s := range strategies {
		node, err := s.Open(ctx, st)
		if err == nil {
			return node, nil
		}
		openErr.Attempts = append(openErr.Attempts, Attempt{Strategy: s.Name, Err: err})
	}
	return nil, openErr
}

// OpenConsolidated opens a store through its ".zmetadata" sidecar.
func OpenConsolidated(ctx context.Context, st store.Store) (*Group, error) {
	data, err := st.Get(ctx, KeyConsolidated)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyConsolidated, err)
	}
	doc, err := ParseConsolidated(data)
	if err != nil {
		return nil, err
	}

	g := &Group{Store: st, Meta: GroupMeta{ZarrFormat: 2}, cons: doc}
	if raw, ok := doc.entry("", KeyGroup); ok {
		if err := json.Unmarshal(raw, &g.Meta); err != nil {
			return nil, fmt.Errorf("parse consolidated %s: %w", KeyGroup, err)
		}
	}
	attrs, err := doc.Attrs("")
	if err != nil {
		return nil, err
	}
	g.Attrs = attrs
	return g, nil
}

// OpenGroup opens the group at path ("" for the store root).
func OpenGroup(ctx context.Context, st store.Store, path string) (*Group, error) {
	data, err := st.Get(ctx, join(path, KeyGroup))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", join(path, KeyGroup), err)
	}
	g := &Group{Store: st, Path: path}
	if err := json.Unmarshal(data, &g.Meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", join(path, KeyGroup), err)
	}
	g.Attrs, err = readAttrs(ctx, st, path)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// OpenArray opens the array at path ("" for the store root).
func OpenArray(ctx context.Context, st store.Store, path string) (*Array, error) {
	data, err := st.Get(ctx, join(path, KeyArray))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", join(path, KeyArray), err)
	}
	a := &Array{Store: st, Path: path}
	if err := json.Unmarshal(data, &a.Meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", join(path, KeyArray), err)
	}
	if len(a.Meta.Shape) != len(a.Meta.Chunks) {
		return nil, fmt.Errorf("%s: shape rank %d != chunk rank %d",
			join(path, KeyArray), len(a.Meta.Shape), len(a.Meta.Chunks))
	}
	a.Attrs, err = readAttrs(ctx, st, path)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func readAttrs(ctx context.Context, st store.Store, path string) (Attributes, error) {
	data, err := st.Get(ctx, join(path, KeyAttrs))
	if errors.Is(err, store.ErrNotFound) {
		return Attributes{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", join(path, KeyAttrs), err)
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", join(path, KeyAttrs), err)
	}
	return attrs, nil
}

// Children returns the names of the direct member arrays and groups.
func (g *Group) Children(ctx context.Context) (arrays, groups []string, err error) {
	if g.cons != nil {
		return g.consolidatedChildren()
	}

	prefix := ""
	if g.Path != "" {
		prefix = g.Path + "/"
	}
	keys, err := g.Store.List(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}

	arraySet := map[string]bool{}
	groupSet := map[string]bool{}
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		name, rest, ok := strings.Cut(rel, "/")
		if !ok {
			continue
		}
		switch rest {
		case KeyArray:
			arraySet[name] = true
		case KeyGroup:
			groupSet[name] = true
		}
	}
	return sortedKeys(arraySet), sortedKeys(groupSet), nil
}

func (g *Group) consolidatedChildren() (arrays, groups []string, err error) {
	arraySet := map[string]bool{}
	groupSet := map[string]bool{}
	for _, p := range g.cons.ArrayPaths() {
		if name, ok := directChild(g.Path, p); ok {
			arraySet[name] = true
		}
	}
	for _, p := range g.cons.GroupPaths() {
		if name, ok := directChild(g.Path, p); ok {
			groupSet[name] = true
		}
	}
	return sortedKeys(arraySet), sortedKeys(groupSet), nil
}

// directChild reports whether p is a direct child of parent and returns
// its member name.
func directChild(parent, p string) (string, bool) {
	if parent != "" {
		var ok bool
		p, ok = strings.CutPrefix(p, parent+"/")
		if !ok {
			return "", false
		}
	}
	if p == "" || strings.Contains(p, "/") {
		return "", false
	}
	return p, true
}

// ChildArray opens the member array with the given name.
func (g *Group) ChildArray(ctx context.Context, name string) (*Array, error) {
	path := join(g.Path, name)
	if g.cons != nil {
		meta, err := g.cons.ArrayMeta(path)
		if err != nil {
			return nil, err
		}
		attrs, err := g.cons.Attrs(path)
		if err != nil {
			return nil, err
		}
		return &Array{Store: g.Store, Path: path, Meta: *meta, Attrs: attrs}, nil
	}
	return OpenArray(ctx, g.Store, path)
}

// ChildGroup opens the member group with the given name.
func (g *Group) ChildGroup(ctx context.Context, name string) (*Group, error) {
	path := join(g.Path, name)
	if g.cons != nil {
		attrs, err := g.cons.Attrs(path)
		if err != nil {
			return nil, err
		}
		sub := &Group{Store: g.Store, Path: path, Attrs: attrs, Logger: g.Logger, cons: g.cons}
		if raw, ok := g.cons.entry(path, KeyGroup); ok {
			if err := json.Unmarshal(raw, &sub.Meta); err != nil {
				return nil, fmt.Errorf("parse consolidated %s/%s: %w", path, KeyGroup, err)
			}
		}
		return sub, nil
	}
	sub, err := OpenGroup(ctx, g.Store, path)
	if err != nil {
		return nil, err
	}
	sub.Logger = g.Logger
	return sub, nil
}

// Walk visits every array reachable from the group, depth-first. A
// failure inside a subtree is logged as a warning and the subtree is
// skipped; the rest of the walk continues. The visit callback's error
// aborts the walk.
func (g *Group) Walk(ctx context.Context, visit func(path string, a *Array) error) error {
	arrays, groups, err := g.Children(ctx)
	if err != nil {
		g.logger().Warn("error walking group, skipping subtree", "path", g.Path, "error", err)
		return nil
	}

	for _, name := range arrays {
		a, err := g.ChildArray(ctx, name)
		if err != nil {
			g.logger().Warn("error opening array, skipping", "path", join(g.Path, name), "error", err)
			continue
		}
		if err := visit(a.Path, a); err != nil {
			return err
		}
	}
	for _, name := range groups {
		sub, err := g.ChildGroup(ctx, name)
		if err != nil {
			g.logger().Warn("error opening group, skipping subtree", "path", join(g.Path, name), "error", err)
			continue
		}
		if err := sub.Walk(ctx, visit); err != nil {
			return err
		}
	}
	return nil
}

// SizeBytes returns the logical (uncompressed) array size.
func (a *Array) SizeBytes() int64 { return a.Meta.SizeBytes() }

// SetAttr sets one attribute on the array's ".zattrs", preserving the
// other entries.
func (a *Array) SetAttr(ctx context.Context, key string, value any) error {
	if a.Attrs == nil {
		a.Attrs = Attributes{}
	}
	a.Attrs[key] = value
	data, err := json.Marshal(a.Attrs)
	if err != nil {
		return err
	}
	return a.Store.Put(ctx, join(a.Path, KeyAttrs), data)
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
