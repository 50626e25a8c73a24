// Package scheduler sweeps a survey over many surfaces.
//
// Surfaces come out of one or more sources, interleaved round-robin so
// that no source starves the others. Each surface is investigated by its
// own worker; failures are isolated to the surface and the sweep
// continues.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flatsurf/flatsurvey/internal/surface"
	"github.com/flatsurf/flatsurvey/internal/worker"
)

// Spawn builds the worker for one surface. The factory owns the wiring:
// backend handle, pipeline, goals, reporters.
type Spawn func(ctx context.Context, s surface.Surface) (*worker.Worker, error)

// Options configures one sweep.
type Options struct {
	// Sources enumerate the surfaces, interleaved round-robin.
	Sources []surface.Source

	// Spawn builds the worker for each surface.
	Spawn Spawn

	// Parallel bounds the number of surfaces investigated concurrently.
	// Values below 1 mean sequential.
	Parallel int

	// Logger receives sweep diagnostics; nil discards them.
	Logger *slog.Logger
}

// Result is the outcome of one surface.
type Result struct {
	// Surface is the surface's stable description.
	Surface string

	// State is the worker's final state.
	State worker.State

	// Err is the failure, if State is Failed.
	Err error
}

// Summary is the outcome of a sweep.
type Summary struct {
	mu      sync.Mutex
	results []Result
}

func (s *Summary) record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Results returns the per-surface outcomes in completion order.
func (s *Summary) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Failed returns the number of surfaces that ended Failed.
func (s *Summary) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.results {
		if r.State == worker.StateFailed {
			n++
		}
	}
	return n
}

// Ok reports whether no surface ended Failed. The sweep's exit code is
// derived from this.
func (s *Summary) Ok() bool {
	return s.Failed() == 0
}

// Run sweeps all surfaces from the sources. A surface failure is logged
// and recorded but does not abort the sweep; only cancellation and a
// source that fails to enumerate do. An expired deadline ends the sweep
// without error, the remaining surfaces simply stay uninvestigated.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var g errgroup.Group
	if opts.Parallel > 1 {
		g.SetLimit(opts.Parallel)
	} else {
		g.SetLimit(1)
	}

	summary := &Summary{}

	sources := append([]surface.Source(nil), opts.Sources...)
	for len(sources) > 0 {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			if errors.Is(err, context.DeadlineExceeded) {
				// Running out of time is an expected outcome, like a
				// worker running out of budget. In-flight workers have
				// already finalized undetermined; stop enumerating.
				logger.Info("sweep out of time", "surfaces", len(summary.Results()))
				return summary, nil
			}
			return summary, err
		}

		alive := sources[:0]
		for _, src := range sources {
			s, ok, err := src.Next()
			if err != nil {
				_ = g.Wait()
				return summary, fmt.Errorf("enumerating surfaces from %s: %w", src.Name(), err)
			}
			if !ok {
				continue
			}
			alive = append(alive, src)

			g.Go(func() error {
				summary.record(investigate(ctx, opts.Spawn, s, logger))
				return nil
			})
		}
		sources = alive
	}

	_ = g.Wait()
	logger.Info("sweep finished", "surfaces", len(summary.Results()), "failed", summary.Failed())
	return summary, nil
}

func investigate(ctx context.Context, spawn Spawn, s surface.Surface, logger *slog.Logger) Result {
	logger.Info("investigating", "surface", s.Describe())

	w, err := spawn(ctx, s)
	if err != nil {
		logger.Error("spawning worker failed", "surface", s.Describe(), "error", err)
		return Result{Surface: s.Describe(), State: worker.StateFailed, Err: err}
	}

	if err := w.Run(ctx); err != nil {
		logger.Error("investigation failed", "surface", s.Describe(), "error", err)
		return Result{Surface: s.Describe(), State: w.State(), Err: err}
	}
	return Result{Surface: s.Describe(), State: w.State()}
}
