package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlope(t *testing.T) {
	for _, tt := range []struct {
		name string
		v    Vector
		want Vector
	}{
		{"already canonical", Vector{1, 2}, Vector{1, 2}},
		{"common divisor", Vector{2, 4}, Vector{1, 2}},
		{"opposite directions agree", Vector{-3, -6}, Vector{1, 2}},
		{"horizontal", Vector{-5, 0}, Vector{1, 0}},
		{"vertical", Vector{0, -7}, Vector{0, 1}},
		{"zero", Vector{0, 0}, Vector{0, 0}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Slope())
		})
	}
}

func TestSlopeIdentifiesParallelConnections(t *testing.T) {
	assert.Equal(t, Vector{3, 7}.Slope(), Vector{-9, -21}.Slope())
	assert.NotEqual(t, Vector{3, 7}.Slope(), Vector{7, 3}.Slope())
}

func TestFlowDecompositionKinds(t *testing.T) {
	parabolic := &FlowDecomposition{Cylinders: 3}
	assert.True(t, parabolic.Parabolic())
	assert.True(t, parabolic.Resolved())

	mixed := &FlowDecomposition{Cylinders: 1, Minimal: 1}
	assert.False(t, mixed.Parabolic())
	assert.True(t, mixed.Resolved())

	open := &FlowDecomposition{Cylinders: 1, Undetermined: 2}
	assert.False(t, open.Parabolic())
	assert.False(t, open.Resolved())
}
