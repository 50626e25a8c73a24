package jobs

import (
	"context"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

const kindCompletelyCylinderPeriodic = "completely-cylinder-periodic"

// CompletelyCylinderPeriodic asks whether the flow decomposes into
// cylinders in every direction. A single minimal component refutes this;
// the goal can never resolve positively since only finitely many
// directions are ever inspected.
type CompletelyCylinderPeriodic struct {
	goal

	// Limit resolves the goal undetermined after that many cylinder
	// periodic directions. Zero means no limit.
	Limit int

	cylinderPeriodicDirections int
	undeterminedDirections     int
}

func NewCompletelyCylinderPeriodic(opts GoalOptions) *CompletelyCylinderPeriodic {
	c := &CompletelyCylinderPeriodic{}
	c.goal = goal{kind: kindCompletelyCylinderPeriodic, opts: opts, reduce: ReduceAnyFalse, data: c.reportData}
	return c
}

func (c *CompletelyCylinderPeriodic) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)

	if d.Minimal > 0 {
		return true, c.finalize(ctx, pipeline.VerdictFalse)
	}
	if !d.Resolved() {
		c.undeterminedDirections++
		return false, nil
	}
	if d.HasCylinders() {
		c.cylinderPeriodicDirections++
		if c.Limit > 0 && c.cylinderPeriodicDirections >= c.Limit {
			return true, c.finalize(ctx, pipeline.Undetermined)
		}
	}
	return false, nil
}

func (c *CompletelyCylinderPeriodic) reportData() map[string]any {
	return map[string]any{
		"cylinder_periodic_directions": c.cylinderPeriodicDirections,
		"undetermined_directions":      c.undeterminedDirections,
	}
}
