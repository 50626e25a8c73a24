// Package sim is an in-process geometry backend with deterministic,
// surface-dependent behavior. It does no geometry; it fabricates saddle
// connections, flow decompositions and orbit closure growth from a
// pseudo-random stream seeded by the surface characteristics, so surveys
// against it are reproducible down to the byte. It backs tests, golden
// files and cache-only dry runs.
package sim

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/flatsurf/flatsurvey/internal/canonical"
	"github.com/flatsurf/flatsurvey/internal/geom"
)

// Backend is the deterministic in-process backend.
type Backend struct {
	// InductionSpread is the largest number of induction steps a
	// fabricated component may need. Components needing more steps than
	// the caller's limit come back undetermined. The zero value uses
	// DefaultInductionSpread.
	InductionSpread int
}

// DefaultInductionSpread exceeds the usual induction step limit by a
// quarter, so a small fraction of components is undetermined at default
// limits, the way hard IETs show up in real runs.
const DefaultInductionSpread = 320

// New returns a backend with default settings.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "sim" }

func (b *Backend) Open(ctx context.Context, characteristics map[string]any) (geom.Handle, error) {
	digest, err := canonical.HashValue(canonical.DomainSurface, characteristics)
	if err != nil {
		return nil, fmt.Errorf("sim: cannot seed from characteristics: %w", err)
	}
	seed, err := strconv.ParseUint(digest[:16], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("sim: malformed digest %q: %w", digest, err)
	}
	spread := b.InductionSpread
	if spread <= 0 {
		spread = DefaultInductionSpread
	}
	return &handle{seed: seed, spread: spread}, nil
}

type handle struct {
	seed   uint64
	spread int
	closed bool

	mu      sync.Mutex
	closure *orbitClosure
}

func (h *handle) Connections(ctx context.Context) (geom.Connections, error) {
	if h.closed {
		return nil, fmt.Errorf("sim: surface is closed")
	}
	return &connections{seed: splitmix(h.seed, 0x636f6e6e)}, nil
}

func (h *handle) Decompose(ctx context.Context, direction geom.Vector, limit int) (*geom.FlowDecomposition, error) {
	if h.closed {
		return nil, fmt.Errorf("sim: surface is closed")
	}
	if direction.IsZero() {
		return nil, &geom.NumericalWarning{Op: "decompose", Detail: "zero direction"}
	}
	if limit <= 0 {
		return nil, fmt.Errorf("sim: induction limit must be positive, got %d", limit)
	}

	slope := direction.Slope()
	r := splitmix(h.seed, uint64(slope.X)*0x9e3779b97f4a7c15^uint64(slope.Y))

	d := &geom.FlowDecomposition{Orientation: direction}
	components := 1 + int(r%3)
	for i := 0; i < components; i++ {
		ri := splitmix(r, uint64(i)+1)
		needed := 16 + int(ri%uint64(h.spread))
		switch {
		case needed > limit:
			d.Undetermined++
			d.UndeterminedIETs = append(d.UndeterminedIETs, fabricateIET(ri))
		case ri%11 == 0:
			d.Minimal++
		default:
			d.Cylinders++
			d.CylinderCircumferences = append(d.CylinderCircumferences, 1+float64(ri>>20%4096)/256)
		}
	}
	return d, nil
}

func (h *handle) OrbitClosure(ctx context.Context) (geom.OrbitClosure, error) {
	if h.closed {
		return nil, fmt.Errorf("sim: surface is closed")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closure == nil {
		h.closure = &orbitClosure{seed: splitmix(h.seed, 0x6f726269), dimension: 2}
	}
	return h.closure, nil
}

func (h *handle) Close() error {
	h.closed = true
	return nil
}

// connections fabricates saddle connections of roughly increasing length.
type connections struct {
	seed uint64
	n    uint64
}

func (c *connections) Next(ctx context.Context) (geom.Vector, bool, error) {
	if err := ctx.Err(); err != nil {
		return geom.Vector{}, false, err
	}
	c.n++
	r := splitmix(c.seed, c.n)
	bound := int64(2*c.n + 3)
	v := geom.Vector{
		X: int64(r%uint64(2*bound+1)) - bound,
		Y: int64((r>>17)%uint64(2*bound+1)) - bound,
	}
	if v.IsZero() {
		v.X = 1
	}
	return v, true, nil
}

func (c *connections) Randomize(lowerBound int64) {
	if lowerBound < 0 {
		lowerBound = 0
	}
	// Jump past everything shorter than the bound and shift the stream
	// so the continuation explores different directions.
	c.n += uint64(lowerBound)
	c.seed = splitmix(c.seed, uint64(lowerBound)+0x72616e64)
}

// orbitClosure grows its tangent space by one dimension for most absorbed
// decompositions that have cylinders and no undetermined components.
type orbitClosure struct {
	seed      uint64
	dimension int
	absorbed  uint64
}

func (o *orbitClosure) Dimension() int { return o.dimension }

func (o *orbitClosure) Absorb(d *geom.FlowDecomposition) error {
	if !d.HasCylinders() || !d.Resolved() {
		return nil
	}
	o.absorbed++
	if splitmix(o.seed, o.absorbed)%4 != 0 {
		o.dimension++
	}
	return nil
}

func fabricateIET(r uint64) geom.IET {
	degree := 2 + int(r>>32)%4
	intervals := make([]int64, degree)
	for i := range intervals {
		intervals[i] = 1 + int64(splitmix(r, uint64(i))%997)
	}
	return geom.IET{Degree: degree, Intervals: intervals}
}

// splitmix is splitmix64, the stream at seed advanced by n.
func splitmix(seed, n uint64) uint64 {
	z := seed + n*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
