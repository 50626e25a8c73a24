package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
)

const kindFlowDecompositions = "flow-decompositions"

// DefaultInductionLimit bounds the Zorich induction steps spent on each
// component of a flow decomposition.
const DefaultInductionLimit = 256

// FlowDecompositions turns directions into flow decompositions. A
// numerical warning from the backend skips the direction; the
// decompositions themselves are not serializable and are only passed down
// the pipeline.
type FlowDecompositions struct {
	pipeline.Emitter

	handle geom.Handle
	report *report.Report

	// Limit is the Zorich induction budget per component.
	Limit int

	count int
}

func NewFlowDecompositions(handle geom.Handle, rep *report.Report) *FlowDecompositions {
	return &FlowDecompositions{handle: handle, report: rep, Limit: DefaultInductionLimit}
}

func (f *FlowDecompositions) Name() string { return kindFlowDecompositions }

// Consume decomposes the flow in the given direction and notifies the
// consumers of the decomposition.
func (f *FlowDecompositions) Consume(ctx context.Context, product any, cost time.Duration) (bool, error) {
	direction := product.(geom.Vector)

	start := time.Now()
	d, err := f.handle.Decompose(ctx, direction, f.Limit)
	var warning *geom.NumericalWarning
	if errors.As(err, &warning) {
		f.report.Log(kindFlowDecompositions, "skipping direction", "direction", direction, "warning", warning.Detail)
		return f.Resolved(), nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", kindFlowDecompositions, err)
	}

	f.count++
	f.report.Log(kindFlowDecompositions, "decomposed direction",
		"direction", direction,
		"cylinders", d.Cylinders,
		"minimal", d.Minimal,
		"undetermined", d.Undetermined)
	f.report.Progress(kindFlowDecompositions, "decompositions", f.count, 0)

	if err := f.Notify(ctx, d, cost+time.Since(start)); err != nil {
		return false, err
	}
	return f.Resolved(), nil
}

// Resolved reports whether every goal downstream has resolved.
func (f *FlowDecompositions) Resolved() bool {
	return f.Drained()
}
