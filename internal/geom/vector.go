package geom

import "fmt"

// Vector is a direction in the plane with integer coordinates.
type Vector struct {
	X, Y int64
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d, %d)", v.X, v.Y)
}

// IsZero reports whether the vector is the zero vector.
func (v Vector) IsZero() bool { return v.X == 0 && v.Y == 0 }

// LengthSquared is the squared euclidean length.
func (v Vector) LengthSquared() int64 {
	return v.X*v.X + v.Y*v.Y
}

// Slope returns the canonical representative of the line through the
// vector: coordinates divided by their gcd, sign chosen so that either
// Y > 0, or Y == 0 and X > 0. Two connections span the same direction
// iff their slopes are equal.
func (v Vector) Slope() Vector {
	if v.IsZero() {
		return v
	}
	g := gcd64(abs64(v.X), abs64(v.Y))
	s := Vector{X: v.X / g, Y: v.Y / g}
	if s.Y < 0 || (s.Y == 0 && s.X < 0) {
		s.X, s.Y = -s.X, -s.Y
	}
	return s
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
