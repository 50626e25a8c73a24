package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatsurvey/internal/geom"
)

func triangle() map[string]any {
	return map[string]any{"type": "Ngon", "angles": []any{1, 1, 1}}
}

func TestOpenIsDeterministic(t *testing.T) {
	ctx := context.Background()
	b := New()

	first, err := b.Open(ctx, triangle())
	require.NoError(t, err)
	second, err := b.Open(ctx, triangle())
	require.NoError(t, err)

	cs1, err := first.Connections(ctx)
	require.NoError(t, err)
	cs2, err := second.Connections(ctx)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		v1, ok, err := cs1.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		v2, _, err := cs2.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, v1, v2)
	}
}

func TestDifferentSurfacesDiffer(t *testing.T) {
	ctx := context.Background()
	b := New()

	h1, err := b.Open(ctx, triangle())
	require.NoError(t, err)
	h2, err := b.Open(ctx, map[string]any{"type": "Ngon", "angles": []any{1, 2, 2}})
	require.NoError(t, err)

	cs1, _ := h1.Connections(ctx)
	cs2, _ := h2.Connections(ctx)

	same := true
	for i := 0; i < 10; i++ {
		v1, _, _ := cs1.Next(ctx)
		v2, _, _ := cs2.Next(ctx)
		if v1 != v2 {
			same = false
		}
	}
	assert.False(t, same)
}

func TestDecomposeIsAFunctionOfTheSlope(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)

	a, err := h.Decompose(ctx, geom.Vector{X: 1, Y: 2}, 256)
	require.NoError(t, err)
	b, err := h.Decompose(ctx, geom.Vector{X: -2, Y: -4}, 256)
	require.NoError(t, err)

	assert.Equal(t, a.Cylinders, b.Cylinders)
	assert.Equal(t, a.Minimal, b.Minimal)
	assert.Equal(t, a.Undetermined, b.Undetermined)
}

func TestDecomposeRejectsZeroDirection(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)

	_, err = h.Decompose(ctx, geom.Vector{}, 256)
	var warning *geom.NumericalWarning
	require.ErrorAs(t, err, &warning)
	assert.Equal(t, "decompose", warning.Op)
}

func TestLowLimitLeavesComponentsUndetermined(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)

	cs, err := h.Connections(ctx)
	require.NoError(t, err)

	undetermined := 0
	for i := 0; i < 50; i++ {
		v, ok, err := cs.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		d, err := h.Decompose(ctx, v, 16)
		if err != nil {
			continue
		}
		undetermined += d.Undetermined
		assert.Len(t, d.UndeterminedIETs, d.Undetermined)
	}
	assert.Positive(t, undetermined, "a tiny induction limit must leave components open")
}

func TestOrbitClosureGrowsOnParabolicDecompositions(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)

	oc, err := h.OrbitClosure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, oc.Dimension())

	for i := 0; i < 20; i++ {
		require.NoError(t, oc.Absorb(&geom.FlowDecomposition{Cylinders: 2}))
	}
	assert.Greater(t, oc.Dimension(), 2)

	before := oc.Dimension()
	require.NoError(t, oc.Absorb(&geom.FlowDecomposition{Cylinders: 1, Undetermined: 1}))
	require.NoError(t, oc.Absorb(&geom.FlowDecomposition{Minimal: 1}))
	assert.Equal(t, before, oc.Dimension(), "unresolved or cylinder-free decompositions must not grow the closure")
}

func TestOrbitClosureIsSharedPerHandle(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)

	first, err := h.OrbitClosure(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Absorb(&geom.FlowDecomposition{Cylinders: 1}))

	second, err := h.OrbitClosure(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Dimension(), second.Dimension())
}

func TestClosedHandleRejectsOperations(t *testing.T) {
	ctx := context.Background()
	h, err := New().Open(ctx, triangle())
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Connections(ctx)
	assert.Error(t, err)
	_, err = h.Decompose(ctx, geom.Vector{X: 1, Y: 1}, 256)
	assert.Error(t, err)
	_, err = h.OrbitClosure(ctx)
	assert.Error(t, err)
}
