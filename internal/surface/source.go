package surface

import (
	"encoding/base64"
	"fmt"
)

// Source produces a lazy, possibly unbounded, sequence of surfaces.
type Source interface {
	// Name is the command token of this source.
	Name() string

	// Next returns the next surface, or ok=false when the source is
	// exhausted. A source error ends the sequence.
	Next() (s Surface, ok bool, err error)
}

// Ngons enumerates the unfoldings of n-gons with the given vertex count,
// ordered by total angle. It skips degenerate angle vectors (π angles,
// angles of 2π or more) and non-canonical representatives (unsorted angle
// vectors and vectors with a common divisor describe a surface that is
// enumerated elsewhere).
type Ngons struct {
	// Vertices is the number of polygon vertices. Required, at least 3.
	Vertices int
	// Limit bounds the total angle sum; 0 means unlimited.
	Limit int
	// Count bounds the number of surfaces produced; 0 means unlimited.
	Count int
	// IncludeLiterature also yields ngons already described in the
	// literature. By default those are skipped since their orbit
	// closures are known.
	IncludeLiterature bool

	total    int
	pool     [][]int
	produced int
}

func (n *Ngons) Name() string { return "ngons" }

func (n *Ngons) Next() (Surface, bool, error) {
	if n.Vertices < 3 {
		return nil, false, fmt.Errorf("ngons needs at least 3 vertices, got %d", n.Vertices)
	}
	if n.total == 0 {
		n.total = n.Vertices // smallest possible angle sum
		n.pool = partitions(n.total, n.Vertices)
	}

	for {
		if n.Count > 0 && n.produced >= n.Count {
			return nil, false, nil
		}

		if len(n.pool) == 0 {
			n.total++
			if n.Limit > 0 && n.total > n.Limit {
				return nil, false, nil
			}
			n.pool = partitions(n.total, n.Vertices)
			continue
		}

		angles := n.pool[0]
		n.pool = n.pool[1:]

		ngon, err := NewNgon(angles)
		if err != nil {
			// Degenerate angle vector, not an error of the source.
			continue
		}

		if !n.IncludeLiterature && ngon.Reference() != "" {
			continue
		}

		n.produced++
		return ngon, true, nil
	}
}

// partitions returns the ordered partitions of total into n non-zero
// non-decreasing integers.
func partitions(total, n int) [][]int {
	if n == 1 {
		return [][]int{{total}}
	}
	var out [][]int
	for a := 1; a < total; a++ {
		for _, rest := range partitions(total-a, n-1) {
			if a <= rest[0] {
				part := append([]int{a}, rest...)
				out = append(out, part)
			}
		}
	}
	return out
}

// Pickled is a source holding a single surface given as a base64 encoded
// pickle, the form in which the scheduler hands work packages to workers.
type Pickled struct {
	// Base64 is the encoded pickle blob.
	Base64 string

	done bool
}

func (p *Pickled) Name() string { return "pickle" }

func (p *Pickled) Next() (Surface, bool, error) {
	if p.done {
		return nil, false, nil
	}
	p.done = true

	data, err := base64.StdEncoding.DecodeString(p.Base64)
	if err != nil {
		return nil, false, fmt.Errorf("pickle source: %w", err)
	}
	s, err := Unpickle(data)
	if err != nil {
		return nil, false, fmt.Errorf("pickle source: %w", err)
	}
	return s, true, nil
}

// Literal is a source over a fixed list of surfaces, mostly used in tests
// and by the plan loader.
type Literal struct {
	Surfaces []Surface

	next int
}

func (l *Literal) Name() string { return "literal" }

func (l *Literal) Next() (Surface, bool, error) {
	if l.next >= len(l.Surfaces) {
		return nil, false, nil
	}
	s := l.Surfaces[l.next]
	l.next++
	return s, true, nil
}
