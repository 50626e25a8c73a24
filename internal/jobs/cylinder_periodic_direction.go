package jobs

import (
	"context"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

const kindCylinderPeriodicDirection = "cylinder-periodic-direction"

// CylinderPeriodicDirection searches for a direction in which the flow
// decomposes into cylinders only. The goal can only resolve positively;
// running out of directions proves nothing.
type CylinderPeriodicDirection struct {
	goal

	// Limit stops the search after that many flow decompositions and
	// resolves undetermined. Zero means no limit.
	Limit int

	directions int
}

func NewCylinderPeriodicDirection(opts GoalOptions) *CylinderPeriodicDirection {
	c := &CylinderPeriodicDirection{}
	c.goal = goal{kind: kindCylinderPeriodicDirection, opts: opts, reduce: ReduceAnyTrue, data: c.reportData}
	return c
}

func (c *CylinderPeriodicDirection) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)
	c.directions++

	if d.Parabolic() {
		return true, c.finalize(ctx, pipeline.VerdictTrue)
	}
	if c.Limit > 0 && c.directions >= c.Limit {
		return true, c.finalize(ctx, pipeline.Undetermined)
	}
	return false, nil
}

func (c *CylinderPeriodicDirection) reportData() map[string]any {
	return map[string]any{"directions": c.directions}
}
