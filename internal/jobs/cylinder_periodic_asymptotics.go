package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
)

const kindCylinderPeriodicAsymptotics = "cylinder-periodic-asymptotics"

// CylinderPeriodicAsymptotics records the maximum circumference of the
// cylinders in each cylinder periodic direction. The goal collects the
// distribution of these circumferences and never resolves; to see the
// distribution up to some length R, limit the length of the saddle
// connections considered.
type CylinderPeriodicAsymptotics struct {
	goal

	distribution []float64
	undetermined int
}

func NewCylinderPeriodicAsymptotics(opts GoalOptions) *CylinderPeriodicAsymptotics {
	c := &CylinderPeriodicAsymptotics{}
	c.goal = goal{kind: kindCylinderPeriodicAsymptotics, opts: opts, reduce: ReduceNothing, data: c.reportData}
	return c
}

func (c *CylinderPeriodicAsymptotics) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)

	switch {
	case d.Minimal > 0:
		// Not cylinder periodic, nothing to record.
	case !d.Resolved():
		c.undetermined++
		c.opts.Report.Log(kindCylinderPeriodicAsymptotics, "undetermined component, most likely minimal but might be a very long cylinder")
	default:
		longest := 0.0
		for _, circumference := range d.CylinderCircumferences {
			if circumference > longest {
				longest = circumference
			}
		}
		c.distribution = append(c.distribution, longest)
	}
	return false, nil
}

func (c *CylinderPeriodicAsymptotics) reportData() map[string]any {
	distribution := append([]float64(nil), c.distribution...)
	sort.Float64s(distribution)
	return map[string]any{
		"distribution":            distribution,
		"undetermined_directions": c.undetermined,
	}
}
