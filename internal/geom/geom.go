// Package geom is the boundary to the native geometry library. The survey
// never performs geometry itself; it opens a surface through a Backend and
// drives the returned handles. The in-process sim backend implements the
// same contracts deterministically for tests and dry runs.
package geom

import (
	"context"
	"fmt"
)

// Backend opens surfaces in a native geometry library.
type Backend interface {
	// Name identifies the backend in logs and cache entries.
	Name() string

	// Open materializes the surface. The handle must be closed when the
	// surface is done.
	Open(ctx context.Context, characteristics map[string]any) (Handle, error)
}

// Handle is an open surface inside the backend.
type Handle interface {
	// Connections enumerates saddle connections by length.
	Connections(ctx context.Context) (Connections, error)

	// Decompose decomposes the flow in the given direction, spending at
	// most limit steps of Zorich induction per component. Components
	// that are still undecided after the limit are reported as
	// undetermined.
	Decompose(ctx context.Context, direction Vector, limit int) (*FlowDecomposition, error)

	// OrbitClosure returns the orbit closure tracker for this surface.
	// Repeated calls return the same tracker.
	OrbitClosure(ctx context.Context) (OrbitClosure, error)

	// Close releases the backend resources held by this surface.
	Close() error
}

// Connections enumerates the saddle connections of a surface ordered by
// length.
type Connections interface {
	// Next returns the next connection, or ok=false when the enumeration
	// is exhausted.
	Next(ctx context.Context) (v Vector, ok bool, err error)

	// Randomize restarts the enumeration at a random point with length at
	// least lowerBound, so a fresh run explores different directions.
	Randomize(lowerBound int64)
}

// OrbitClosure tracks the GL(2,R) orbit closure of a surface as flow
// decompositions are absorbed into its tangent space.
type OrbitClosure interface {
	// Dimension is the dimension of the tangent space found so far.
	Dimension() int

	// Absorb updates the tangent space from a flow decomposition. Only
	// decompositions with cylinders and without undetermined components
	// can enlarge the tangent space.
	Absorb(d *FlowDecomposition) error
}

// FlowDecomposition is the outcome of decomposing the flow in one
// direction. Decompositions are not serializable; caches hold only the
// surface and the direction and regenerate the decomposition on demand.
type FlowDecomposition struct {
	// Orientation is the direction that was decomposed.
	Orientation Vector

	// Cylinders, Minimal and Undetermined count the components by kind.
	Cylinders    int
	Minimal      int
	Undetermined int

	// CylinderCircumferences are the circumferences of the cylinder
	// components, in the backend's floating point approximation.
	CylinderCircumferences []float64

	// UndeterminedIETs are the interval exchange transformations
	// underlying the undetermined components.
	UndeterminedIETs []IET
}

// Parabolic reports whether every component of the decomposition is a
// cylinder.
func (d *FlowDecomposition) Parabolic() bool {
	return d.Minimal == 0 && d.Undetermined == 0 && d.Cylinders > 0
}

// HasCylinders reports whether the decomposition contains a cylinder.
func (d *FlowDecomposition) HasCylinders() bool { return d.Cylinders > 0 }

// Completely resolved means no component was left undetermined.
func (d *FlowDecomposition) Resolved() bool { return d.Undetermined == 0 }

func (d *FlowDecomposition) String() string {
	return fmt.Sprintf("FlowDecomposition(cylinders=%d, minimal=%d, undetermined=%d)",
		d.Cylinders, d.Minimal, d.Undetermined)
}

// IET is an interval exchange transformation the backend could not decide.
type IET struct {
	// Degree is the number of intervals.
	Degree int

	// Intervals are the interval lengths, normalized to integers.
	Intervals []int64
}

func (t IET) Describe() string {
	return fmt.Sprintf("IET(degree=%d, intervals=%v)", t.Degree, t.Intervals)
}

// NumericalWarning is a recoverable numerical problem reported by the
// backend. The operation that raised it produced no result but the
// surface remains usable.
type NumericalWarning struct {
	// Op is the backend operation that failed.
	Op string
	// Detail is the backend's description of the problem.
	Detail string
}

func (w *NumericalWarning) Error() string {
	return fmt.Sprintf("numerical warning in %s: %s", w.Op, w.Detail)
}
