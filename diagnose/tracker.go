// Package diagnose provides troubleshooting tools for Zarr stores:
// operation timing, friendly error explanations, deep store diagnosis
// and an instrumentation wrapper for the client operations.
package diagnose

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Operation is one tracked operation.
type Operation struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Success reports whether the operation completed without error.
func (o Operation) Success() bool { return o.Err == nil }

// Tracker records named operations and their outcomes. It is safe for
// concurrent use.
type Tracker struct {
	logger *slog.Logger

	mu  sync.Mutex
	ops []Operation
}

// NewTracker creates a Tracker. A nil logger disables logging.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{logger: logger}
}

// Track times fn, records the outcome under name and returns fn's
// error unchanged.
func (t *Tracker) Track(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(ctx, name, time.Since(start), err)
	return err
}

// Record adds one completed operation.
func (t *Tracker) Record(ctx context.Context, name string, duration time.Duration, err error) {
	t.mu.Lock()
	t.ops = append(t.ops, Operation{Name: name, Duration: duration, Err: err})
	t.mu.Unlock()

	if err != nil {
		t.logger.ErrorContext(ctx, "operation failed",
			"operation", name,
			"duration", duration,
			"error", err,
		)
	} else {
		t.logger.DebugContext(ctx, "operation completed",
			"operation", name,
			"duration", duration,
		)
	}
}

// Operations returns a snapshot of the recorded operations.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Operation, len(t.ops))
	copy(out, t.ops)
	return out
}

// Summary aggregates a Tracker's recorded operations.
type Summary struct {
	Operations int           `json:"operations"`
	Failed     int           `json:"failed"`
	Total      time.Duration `json:"total"`
}

// Summarize logs per-operation timings and returns the aggregate.
func (t *Tracker) Summarize(ctx context.Context) Summary {
	ops := t.Operations()

	var s Summary
	s.Operations = len(ops)
	for _, op := range ops {
		s.Total += op.Duration
		if !op.Success() {
			s.Failed++
		}
		t.logger.InfoContext(ctx, "operation summary",
			"operation", op.Name,
			"duration", op.Duration,
			"success", op.Success(),
		)
	}
	t.logger.InfoContext(ctx, "tracker summary",
		"operations", s.Operations,
		"failed", s.Failed,
		"total", s.Total,
	)
	return s
}
