// Package jobs holds the concrete computations of a survey: the saddle
// connection producers, the flow decomposition processor between them,
// and the goals that form verdicts about a surface.
//
// Every job is bound to one surface and wired into the pipeline graph at
// construction. The graph is stepped from its root producer; products
// cascade synchronously to the goals.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// GoalOptions is the shared dependency bundle of all goals.
type GoalOptions struct {
	// Surface is the surface under investigation.
	Surface surface.Surface

	// Report receives results and progress.
	Report *report.Report

	// Cache short-circuits goals from previous runs. nil means no cache.
	Cache cache.Cache

	// CacheOnly resolves cache misses as undetermined instead of
	// computing.
	CacheOnly bool

	// Clock stamps results; nil means time.Now.
	Clock func() time.Time
}

func (o GoalOptions) clock() func() time.Time {
	if o.Clock == nil {
		return time.Now
	}
	return o.Clock
}

func (o GoalOptions) cache() cache.Cache {
	if o.Cache == nil {
		return cache.Nothing{}
	}
	return o.Cache
}

// goal is the embeddable half common to all goals: verdict bookkeeping,
// cache consumption and the report-exactly-once discipline.
type goal struct {
	kind      string
	opts      GoalOptions
	reduce    Reducer
	data      func() map[string]any
	verdict   pipeline.Verdict
	resolved  bool
	reported  bool
	fromCache bool
}

func (g *goal) Name() string { return g.kind }

func (g *goal) Resolved() bool { return g.resolved }

func (g *goal) Verdict() pipeline.Verdict { return g.verdict }

// ConsumeCache reduces the cached results of previous runs. The goal
// resolves if the reduction is conclusive, or unconditionally in
// cache-only mode. Cache access failure is fatal; silently skipping the
// cache would cause expensive recomputation.
func (g *goal) ConsumeCache(ctx context.Context) error {
	entries, err := g.opts.cache().Get(ctx, g.kind, g.opts.Surface)
	if err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}
	verdict, err := g.reduce(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}

	if verdict.Resolved() || g.opts.CacheOnly {
		g.verdict = verdict
		g.resolved = true
		g.fromCache = true
		return g.Report(ctx)
	}
	return nil
}

// emit reports an intermediate record and persists it to the cache
// without resolving the goal. Goals that collect data rather than form a
// verdict report through emit and stay unresolved.
func (g *goal) emit(ctx context.Context, rec report.Record) error {
	if err := g.opts.Report.Result(ctx, g.kind, rec); err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}
	ref, err := cache.NewSurfaceRef(g.opts.Surface)
	if err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}
	if err := g.opts.cache().Put(ctx, g.kind, cache.Entry{
		Surface:   ref,
		Timestamp: rec.Timestamp,
		Result:    rec.Verdict,
		Data:      rec.Data,
	}); err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}
	return nil
}

// finalize resolves the goal and emits its report.
func (g *goal) finalize(ctx context.Context, verdict pipeline.Verdict) error {
	g.verdict = verdict
	g.resolved = true
	return g.Report(ctx)
}

// Report emits the goal's final state exactly once: later calls are
// no-ops. A goal that resolved from the cache reports the cached verdict
// without recomputation; one whose producers ran dry reports
// undetermined.
func (g *goal) Report(ctx context.Context) error {
	if g.reported {
		return nil
	}
	g.reported = true

	var data map[string]any
	if g.data != nil {
		data = g.data()
	}
	if data == nil {
		data = map[string]any{}
	}
	if g.fromCache {
		data["cached"] = true
	}

	rec := report.Record{
		Verdict:   g.verdict,
		Data:      data,
		Timestamp: g.opts.clock()(),
	}
	if err := g.opts.Report.Result(ctx, g.kind, rec); err != nil {
		return fmt.Errorf("%s: %w", g.kind, err)
	}

	if !g.fromCache {
		ref, err := cache.NewSurfaceRef(g.opts.Surface)
		if err != nil {
			return fmt.Errorf("%s: %w", g.kind, err)
		}
		if err := g.opts.cache().Put(ctx, g.kind, cache.Entry{
			Surface:   ref,
			Timestamp: rec.Timestamp,
			Result:    rec.Verdict,
			Data:      rec.Data,
		}); err != nil {
			return fmt.Errorf("%s: %w", g.kind, err)
		}
	}
	return nil
}
