package surface

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src Source) []string {
	t.Helper()
	var out []string
	for {
		s, ok, err := src.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, s.Describe())
	}
}

func TestNgons_EnumeratesTrianglesByTotalAngle(t *testing.T) {
	src := &Ngons{Vertices: 3, Limit: 6, IncludeLiterature: true}

	got := collect(t, src)
	assert.Equal(t, []string{
		"Ngon([1, 1, 1])",
		"Ngon([1, 1, 2])",
		"Ngon([1, 1, 3])",
		"Ngon([1, 2, 2])",
		"Ngon([1, 1, 4])",
		"Ngon([1, 2, 3])",
		"Ngon([2, 2, 2])",
	}, got)
}

func TestNgons_SkipsLiteratureByDefault(t *testing.T) {
	src := &Ngons{Vertices: 3, Limit: 6}
	assert.Empty(t, collect(t, src))
}

func TestNgons_CountBound(t *testing.T) {
	src := &Ngons{Vertices: 3, Limit: 100, Count: 3, IncludeLiterature: true}
	assert.Len(t, collect(t, src), 3)
}

func TestNgons_TooFewVertices(t *testing.T) {
	src := &Ngons{Vertices: 2}
	_, _, err := src.Next()
	require.Error(t, err)
}

func TestPartitions(t *testing.T) {
	assert.Equal(t, [][]int{{1, 3}, {2, 2}}, partitions(4, 2))
	assert.Equal(t, [][]int{{4}}, partitions(4, 1))
}

func TestPickledSource(t *testing.T) {
	n, err := NewNgon([]int{1, 2, 2})
	require.NoError(t, err)
	data, err := Pickle(n)
	require.NoError(t, err)

	src := &Pickled{Base64: base64.StdEncoding.EncodeToString(data)}

	s, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ngon([1, 2, 2])", s.Describe())

	_, ok, err = src.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLiteralSource(t *testing.T) {
	a, _ := NewNgon([]int{1, 1, 1})
	b, _ := NewNgon([]int{1, 2, 2})
	src := &Literal{Surfaces: []Surface{a, b}}

	assert.Equal(t, []string{"Ngon([1, 1, 1])", "Ngon([1, 2, 2])"}, collect(t, src))
}
