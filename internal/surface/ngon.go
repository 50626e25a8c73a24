package surface

import (
	"fmt"
	"sort"
	"strings"
)

// Ngon is the translation surface obtained by unfolding an n-gon with the
// given angles. The inner angles are prescribed in multiples of
// (n-2)π/N where n is the number of vertices and N the sum of all angles.
type Ngon struct {
	angles []int
}

// NewNgon validates the angles and constructs the unfolding.
//
// Angles describing a degenerate polygon are rejected: an angle of π makes
// the vertex a non-vertex and an angle of 2π or more cannot close up.
func NewNgon(angles []int) (*Ngon, error) {
	if len(angles) < 3 {
		return nil, fmt.Errorf("ngon needs at least 3 angles, got %d", len(angles))
	}
	total := 0
	for _, a := range angles {
		if a <= 0 {
			return nil, fmt.Errorf("ngon angles must be positive, got %d", a)
		}
		total += a
	}
	n := len(angles)
	for _, a := range angles {
		// a·(n-2)π/N == π
		if a*(n-2) == total {
			return nil, fmt.Errorf("ngon %v has a π angle", angles)
		}
		// a·(n-2)π/N >= 2π
		if a*(n-2) >= 2*total {
			return nil, fmt.Errorf("ngon %v has an angle of 2π or more", angles)
		}
	}

	copied := make([]int, len(angles))
	copy(copied, angles)
	return &Ngon{angles: copied}, nil
}

// Angles returns the defining angles.
func (n *Ngon) Angles() []int {
	copied := make([]int, len(n.angles))
	copy(copied, n.angles)
	return copied
}

func (n *Ngon) Name() string {
	parts := make([]string, len(n.angles))
	for i, a := range n.angles {
		parts[i] = fmt.Sprintf("%d", a)
	}
	return "ngon-" + strings.Join(parts, "-")
}

func (n *Ngon) Describe() string {
	parts := make([]string, len(n.angles))
	for i, a := range n.angles {
		parts[i] = fmt.Sprintf("%d", a)
	}
	return "Ngon([" + strings.Join(parts, ", ") + "])"
}

func (n *Ngon) Characteristics() map[string]any {
	angles := make([]any, len(n.angles))
	for i, a := range n.angles {
		angles[i] = a
	}
	return map[string]any{
		"type":   "Ngon",
		"angles": angles,
	}
}

// OrbitClosureDimensionUpperBound computes the dimension of the stratum
// the unfolding lives in.
//
// At vertex i the inner angle is aᵢ(n-2)π/N. Writing these over the
// smallest common denominator q, the unfolding has gcd(cᵢ, q)
// singularities of cone angle 2π·cᵢ/gcd(cᵢ, q) at vertex i, so the
// singularity orders sum to Σ(cᵢ - gcd(cᵢ, q)). The stratum of abelian
// differentials with orders k₁…kₛ on a genus-g surface has dimension
// 2g + s - 1 = Σkᵢ + s + 1. A singularity-free unfolding is a torus and
// keeps one marked point.
func (n *Ngon) OrbitClosureDimensionUpperBound() int {
	verts := len(n.angles)
	total := 0
	for _, a := range n.angles {
		total += a
	}

	// Angle numerators over the common denominator q, fully reduced.
	q := total
	c := make([]int, verts)
	g := q
	for i, a := range n.angles {
		c[i] = a * (verts - 2)
		g = gcd(g, c[i])
	}
	q /= g
	for i := range c {
		c[i] /= g
	}

	orders := 0
	singularities := 0
	for _, ci := range c {
		d := gcd(ci, q)
		orders += ci - d
		if ci/d > 1 {
			singularities += d
		}
	}
	if singularities == 0 {
		singularities = 1
	}

	return orders + singularities + 1
}

// Reference names the literature where this unfolding (or one with the
// same orbit closure) has been studied.
func (n *Ngon) Reference() string {
	angles := n.Angles()

	sorted := make([]int, len(angles))
	copy(sorted, angles)
	sort.Ints(sorted)
	if !equalInts(sorted, angles) {
		return fmt.Sprintf("Same orbit closure as %v", sorted)
	}

	if g := gcdAll(angles); g != 1 {
		reduced := make([]int, len(angles))
		for i, a := range angles {
			reduced[i] = a / g
		}
		return fmt.Sprintf("Same as %v", reduced)
	}

	if len(angles) == 3 {
		a, b, c := angles[0], angles[1], angles[2]
		switch {
		case a == 1 && b == 1:
			return "Veech 1989"
		case a == b:
			return fmt.Sprintf("Same as (%d, %d, %d)", 2*a, c, 2*a+c)
		case b == c:
			return fmt.Sprintf("Same as (%d, %d, %d)", 2*b, a, 2*b+a)
		case a == 1 && c == b+1:
			return "~(2, b, b) of Veech"
		case a == 2 && c == b+2:
			return "Veech 1989"
		case a == 1 && b == 2 && c%2 == 1:
			return "Ward 1998"
		case a == 2 && b == 3 && c == 4:
			return "Kenyon-Smillie 2000 acute triangle"
		case a == 3 && b == 4 && c == 5:
			return "Kenyon-Smillie 2000 acute triangle; first appeared in Veech 1989"
		case a == 3 && b == 5 && c == 7:
			return "Kenyon-Smillie 2000 acute triangle; first appeared in Vorobets 1996"
		case a == 1 && b == 4 && c == 7:
			return "Hooper 'Another Veech triangle'"
		case a == 1 && b == 3 && (c == 6 || c == 8):
			return "Rank-one example (to be checked)"
		}
	}

	if len(angles) == 4 {
		a, b, c, d := angles[0], angles[1], angles[2], angles[3]
		quad := [4]int{a, b, c, d}
		emmw := [][4]int{
			{1, 1, 1, 7}, {1, 1, 1, 9}, {1, 1, 2, 8},
			{1, 1, 2, 12}, {1, 2, 2, 11}, {1, 2, 2, 15},
		}
		for _, known := range emmw {
			if quad == known {
				return "Eskin-McMullen-Mukamel-Wright 'Billiards, Quadrilaterals, and Moduli Spaces'"
			}
		}
		if quad == [4]int{1, 1, 1, 1} {
			return "Torus"
		}
		if a == b && c == d {
			if a%2 != c%2 {
				return fmt.Sprintf("Same as (%d, %d, %d, %d)", 2*a, 2*c, a+c, a+c)
			}
			return fmt.Sprintf("Same as (%d, %d, %d, %d)", a, c, (a+c)/2, (a+c)/2)
		}
	}

	return ""
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func gcdAll(values []int) int {
	g := 0
	for _, v := range values {
		g = gcd(g, v)
	}
	return g
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
