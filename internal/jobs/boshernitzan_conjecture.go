package jobs

import (
	"context"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

const kindBoshernitzanConjecture = "boshernitzan-conjecture"

// BoshernitzanConjecture determines whether Boshernitzan's conjecture
// holds for a triangle: every special direction in S¹(2d') decomposes
// completely into cylinders. A minimal component in any such direction
// refutes the conjecture; checking all directions without refutation
// confirms it.
//
// The goal must consume decompositions of the special directions, so it
// iterates over BoshernitzanConjectureOrientations rather than the
// saddle connection orientations.
type BoshernitzanConjecture struct {
	goal

	orientations *BoshernitzanConjectureOrientations
	directions   int
}

func NewBoshernitzanConjecture(opts GoalOptions, orientations *BoshernitzanConjectureOrientations) *BoshernitzanConjecture {
	b := &BoshernitzanConjecture{orientations: orientations}
	b.goal = goal{kind: kindBoshernitzanConjecture, opts: opts, reduce: ReduceConsensus, data: b.reportData}
	return b
}

func (b *BoshernitzanConjecture) Consume(ctx context.Context, product any, _ time.Duration) (bool, error) {
	d := product.(*geom.FlowDecomposition)
	b.directions++

	if d.Minimal > 0 {
		return true, b.finalize(ctx, pipeline.VerdictFalse)
	}
	if !d.Resolved() {
		// An undecided component leaves the direction, and with it the
		// conjecture, unsettled.
		return true, b.finalize(ctx, pipeline.Undetermined)
	}
	return false, nil
}

// Report concludes the conjecture holds when every special direction was
// checked without refutation, then emits the final state.
func (b *BoshernitzanConjecture) Report(ctx context.Context) error {
	if !b.resolved && b.orientations.Exhausted() {
		b.verdict = pipeline.VerdictTrue
		b.resolved = true
	}
	return b.goal.Report(ctx)
}

func (b *BoshernitzanConjecture) reportData() map[string]any {
	return map[string]any{
		"assertions": b.orientations.Assertions(),
		"directions": b.directions,
	}
}
