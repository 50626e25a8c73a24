package jobs

import (
	"context"
	"fmt"
	"sort"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

const kindBoshernitzanOrientations = "boshernitzan-conjecture-orientations"

// BoshernitzanConjectureOrientations produces the directions in S¹(2d'),
// i.e. corresponding to certain roots of unity, that Conjecture 2.2 of
// Boshernitzan's "Billiards and Rational Periodic Directions in Polygons"
// makes a statement about. Modulo the symmetries of the unfolding, only
// two such directions have to be checked.
//
// The special directions are only defined for triangles.
type BoshernitzanConjectureOrientations struct {
	pipeline.Emitter

	angles     []int
	directions []geom.Vector
	next       int
}

func NewBoshernitzanConjectureOrientations(s surface.Surface) (*BoshernitzanConjectureOrientations, error) {
	withAngles, ok := s.(interface{ Angles() []int })
	if !ok || len(withAngles.Angles()) != 3 {
		return nil, fmt.Errorf("%s: special directions are only defined for triangles, not for %s", kindBoshernitzanOrientations, s.Describe())
	}

	angles := append([]int(nil), withAngles.Angles()...)
	sort.Ints(angles)
	d := int64(angles[0] + angles[1] + angles[2])

	var directions []geom.Vector
	if d%2 == 0 {
		// Modulo symmetries there are only two directions in
		// S¹(2d')=S¹(2d).
		directions = []geom.Vector{{X: d, Y: 0}, {X: 0, Y: d}}
	} else {
		// S¹(2d')=S¹(4d); one direction in S¹(d') and one orthogonal to
		// it that is not.
		directions = []geom.Vector{{X: 0, Y: 2 * d}, {X: d, Y: -d}}
	}

	return &BoshernitzanConjectureOrientations{angles: angles, directions: directions}, nil
}

func (b *BoshernitzanConjectureOrientations) Name() string { return kindBoshernitzanOrientations }

// Assertions names the parts of Boshernitzan's conjecture that apply to
// this triangle.
func (b *BoshernitzanConjectureOrientations) Assertions() []string {
	a, bb, c := b.angles[0], b.angles[1], b.angles[2]
	d := a + bb + c

	var assertions []string
	if d%2 == 0 {
		assertions = append(assertions, "a")
	} else {
		assertions = append(assertions, "b")
	}
	if d <= 12 && !(a == 2 && bb == 3 && c == 6) {
		assertions = append(assertions, "c")
	}
	if c == a+bb {
		assertions = append(assertions, "e")
	}
	return assertions
}

// Produce yields the next special direction. The producer is exhausted
// after the last direction, which is how the conjecture goal learns that
// every relevant direction has been checked.
func (b *BoshernitzanConjectureOrientations) Produce(ctx context.Context) (bool, error) {
	if b.Exhausted() {
		return false, nil
	}
	if b.Drained() || b.next >= len(b.directions) {
		b.MarkExhausted()
		return false, nil
	}

	v := b.directions[b.next]
	b.next++
	if err := b.Notify(ctx, v, 0); err != nil {
		return false, err
	}
	return true, nil
}
