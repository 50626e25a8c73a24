package jobs

import (
	"context"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
)

const kindUndeterminedIET = "undetermined-iet"

// UndeterminedIET collects the interval exchange transformations that the
// backend could not decide. It is a pure data-collection goal: each IET is
// reported and cached as it is found, and the goal itself always ends
// undetermined.
type UndeterminedIET struct {
	goal

	// Limit stops the collection after this many IETs; 0 collects
	// without bound.
	Limit int

	count int
}

func NewUndeterminedIET(opts GoalOptions) *UndeterminedIET {
	u := &UndeterminedIET{}
	u.goal = goal{kind: kindUndeterminedIET, opts: opts, reduce: ReduceNothing}
	return u
}

func (u *UndeterminedIET) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)

	for _, iet := range d.UndeterminedIETs {
		u.count++
		u.opts.Report.Log(kindUndeterminedIET, "found undetermined interval exchange transformation", "iet", iet.Describe())
		if err := u.emit(ctx, report.Record{
			Verdict: pipeline.Undetermined,
			Data: map[string]any{
				"degree":    iet.Degree,
				"intervals": iet.Intervals,
			},
			Timestamp: u.opts.clock()(),
		}); err != nil {
			return false, err
		}
		if u.Limit > 0 && u.count >= u.Limit {
			return true, u.finalize(ctx, pipeline.Undetermined)
		}
	}
	return false, nil
}
