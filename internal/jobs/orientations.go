package jobs

import (
	"context"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

const kindOrientations = "saddle-connection-orientations"

// SaddleConnectionOrientations deduplicates the directions of the saddle
// connections flowing through it. Parallel connections decompose
// identically, so only the first connection of each slope is passed on.
type SaddleConnectionOrientations struct {
	pipeline.Emitter

	seen map[geom.Vector]struct{}
}

func NewSaddleConnectionOrientations() *SaddleConnectionOrientations {
	return &SaddleConnectionOrientations{seen: map[geom.Vector]struct{}{}}
}

func (o *SaddleConnectionOrientations) Name() string { return kindOrientations }

// Consume forwards the slope of the connection unless a parallel
// connection has been seen before.
func (o *SaddleConnectionOrientations) Consume(ctx context.Context, product any, cost time.Duration) (bool, error) {
	v := product.(geom.Vector)
	slope := v.Slope()
	if _, dup := o.seen[slope]; dup {
		return o.Resolved(), nil
	}
	o.seen[slope] = struct{}{}

	if err := o.Notify(ctx, slope, cost); err != nil {
		return false, err
	}
	return o.Resolved(), nil
}

// Resolved reports whether everything downstream has resolved and the
// deduplication serves no consumer anymore.
func (o *SaddleConnectionOrientations) Resolved() bool {
	return o.Drained()
}
