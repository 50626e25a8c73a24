package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

const kindOrbitClosure = "orbit-closure"

const (
	// DefaultOrbitClosureLimit is the number of consecutive cylinder
	// decompositions without a dimension increase after which the search
	// is considered stuck.
	DefaultOrbitClosureLimit = 64

	// DefaultOrbitClosureExpansions is how often a stuck search restarts
	// from longer saddle connections before giving up.
	DefaultOrbitClosureExpansions = 6
)

// OrbitClosure determines the GL(2,R) orbit closure of a surface by
// absorbing flow decompositions into its tangent space. The goal resolves
// positively when the dimension reaches the surface's upper bound; it can
// never conclude that the closure is smaller, so a stuck search ends
// undetermined.
type OrbitClosure struct {
	goal

	handle      geom.Handle
	connections *SaddleConnections

	// Limit and Expansions tune when the search gives up; see the
	// package defaults.
	Limit      int
	Expansions int

	closure   geom.OrbitClosure
	bound     int
	dimension int

	directions               int
	directionsWithCylinders  int
	cylindersWithoutIncrease int
	expanded                 int
}

// NewOrbitClosure creates the goal for an open surface. The connections
// producer is the root of the pipeline this goal hangs off; it is
// randomized when the search needs to expand to longer connections.
func NewOrbitClosure(opts GoalOptions, handle geom.Handle, connections *SaddleConnections) *OrbitClosure {
	o := &OrbitClosure{
		handle:      handle,
		connections: connections,
		Limit:       DefaultOrbitClosureLimit,
		Expansions:  DefaultOrbitClosureExpansions,
		bound:       opts.Surface.OrbitClosureDimensionUpperBound(),
	}
	o.goal = goal{kind: kindOrbitClosure, opts: opts, reduce: ReduceAnyTrue, data: o.reportData}
	return o
}

// Consume absorbs one flow decomposition into the tangent space of the
// orbit closure.
func (o *OrbitClosure) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)

	if o.closure == nil {
		closure, err := o.handle.OrbitClosure(ctx)
		if err != nil {
			return false, fmt.Errorf("%s: %w", kindOrbitClosure, err)
		}
		o.closure = closure
		o.dimension = closure.Dimension()
	}

	o.directions++

	if d.HasCylinders() {
		o.directionsWithCylinders++
		if err := o.closure.Absorb(d); err != nil {
			return false, fmt.Errorf("%s: %w", kindOrbitClosure, err)
		}
		dimension := o.closure.Dimension()
		if dimension > o.dimension {
			o.dimension = dimension
			o.cylindersWithoutIncrease = 0
			o.opts.Report.Log(kindOrbitClosure, "growing orbit closure", "dimension", dimension)
		} else {
			o.cylindersWithoutIncrease++
		}
		o.opts.Report.Progress(kindOrbitClosure, "dimension", o.dimension, o.bound)

		if o.dimension >= o.bound {
			return true, o.finalize(ctx, pipeline.VerdictTrue)
		}
	}

	if o.cylindersWithoutIncrease >= o.Limit {
		if o.expanded >= o.Expansions {
			return true, o.finalize(ctx, pipeline.Undetermined)
		}
		o.expanded++
		o.cylindersWithoutIncrease = 0
		lowerBound := 2 * o.connections.LongestSquared()
		o.opts.Report.Log(kindOrbitClosure, "expanding search to longer connections", "lower_bound", lowerBound)
		o.connections.Randomize(lowerBound)
	}
	return false, nil
}

func (o *OrbitClosure) reportData() map[string]any {
	data := map[string]any{
		"dimension":                 o.dimension,
		"directions":                o.directions,
		"directions_with_cylinders": o.directionsWithCylinders,
	}
	if o.dimension >= o.bound {
		data["dense"] = true
	} else {
		data["dense"] = nil
	}
	return data
}
