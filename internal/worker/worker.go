// Package worker drives one surface investigation to completion.
//
// A worker owns the pipeline of one surface: it consumes the cache,
// steps the producers until every goal resolved or a budget ran out, and
// guarantees that every goal reports exactly once. The surface ends Done
// unless a job genuinely failed; running out of budget or directions is
// an expected outcome.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// State is the lifecycle state of one surface investigation.
type State int

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const kindWorker = "worker"

// Options bundles everything a worker needs for one surface.
type Options struct {
	// Surface is the surface under investigation.
	Surface surface.Surface

	// Producers are the roots of the pipeline, stepped round-robin.
	Producers []pipeline.Producer

	// Goals are the verdicts this run is after. Every goal reports
	// exactly once before the run ends.
	Goals []pipeline.Goal

	// Report receives logs, progress and results.
	Report *report.Report

	// Budget limits the pipeline steps of this run; nil means
	// unlimited. Wall-clock limits are imposed via the context deadline.
	Budget *Budget

	// Tokens generates the run token; nil means UUIDv7.
	Tokens TokenGenerator

	// Release frees the backend handle and other resources of the run.
	// Called exactly once when the run ends, also on failure and
	// cancellation.
	Release func() error
}

// Worker is the per-surface orchestrator.
type Worker struct {
	opts  Options
	state State
	token string
}

func New(opts Options) *Worker {
	return &Worker{opts: opts}
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return w.state
}

// Token returns the run token, or "" before Run was called.
func (w *Worker) Token() string {
	return w.token
}

// Run investigates the surface until every goal resolved, the producers
// ran dry, or a budget was exhausted. Budget and deadline exhaustion are
// not errors: the unresolved goals finalize undetermined and the surface
// ends Done. A returned error means a job failed or the run was
// canceled; final reports are still emitted.
func (w *Worker) Run(ctx context.Context) (err error) {
	if w.state != StatePending {
		return fmt.Errorf("worker for %s has already run", w.opts.Surface.Describe())
	}
	w.state = StateRunning

	tokens := w.opts.Tokens
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	w.token = tokens.Generate()
	w.opts.Report.Log(kindWorker, "investigating surface", "run", w.token)

	defer func() {
		if w.opts.Release != nil {
			if rerr := w.opts.Release(); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
	}()

	for _, g := range w.opts.Goals {
		if cerr := g.ConsumeCache(ctx); cerr != nil {
			w.state = StateFailed
			return fmt.Errorf("consuming cache for %s: %w", w.opts.Surface.Describe(), cerr)
		}
	}

	for {
		if w.resolved() {
			w.state = StateDone
			return w.finalize(ctx)
		}

		if cerr := ctx.Err(); cerr != nil {
			if errors.Is(cerr, context.DeadlineExceeded) {
				w.opts.Report.Log(kindWorker, "out of time", "run", w.token)
				w.state = StateDone
				return w.finalize(context.WithoutCancel(ctx))
			}
			w.state = StateFailed
			ferr := w.finalize(context.WithoutCancel(ctx))
			return errors.Join(cerr, ferr)
		}

		if berr := w.opts.Budget.Check(w.token); berr != nil {
			w.opts.Report.Log(kindWorker, "out of budget", "run", w.token, "steps", w.opts.Budget.Used())
			w.state = StateDone
			return w.finalize(ctx)
		}

		more, serr := pipeline.Step(ctx, w.opts.Producers...)
		if serr != nil {
			w.state = StateFailed
			ferr := w.finalize(ctx)
			return errors.Join(fmt.Errorf("investigating %s: %w", w.opts.Surface.Describe(), serr), ferr)
		}
		if !more {
			w.opts.Report.Log(kindWorker, "out of directions", "run", w.token)
			w.state = StateDone
			return w.finalize(ctx)
		}
	}
}

func (w *Worker) resolved() bool {
	for _, g := range w.opts.Goals {
		if !g.Resolved() {
			return false
		}
	}
	return true
}

// finalize emits the final report of every goal. Goals that already
// reported ignore the call, so finalize is safe after partial failure.
func (w *Worker) finalize(ctx context.Context) error {
	var errs []error
	for _, g := range w.opts.Goals {
		if rerr := g.Report(ctx); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	return errors.Join(errs...)
}
