package cache

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countEntries(t *testing.T, doc []byte) int {
	t.Helper()
	var parsed map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &parsed))
	total := 0
	for kind, entries := range parsed {
		require.NotEqual(t, "surface", kind)
		total += len(entries)
	}
	return total
}

func TestJoinIsAdditiveOverDisjointInputs(t *testing.T) {
	a := []byte(`{"orbit-closure": [{"result": true, "surface": {"description": "Ngon([1, 1, 1])", "pickle": ""}}]}`)
	b := []byte(`{
		"orbit-closure": [{"result": null, "surface": {"description": "Ngon([1, 2, 2])", "pickle": ""}}],
		"completely-cylinder-periodic": [{"result": false, "surface": {"description": "Ngon([1, 2, 2])", "pickle": ""}}]
	}`)

	joined, err := Join(a, b)
	require.NoError(t, err)

	assert.Equal(t, countEntries(t, a)+countEntries(t, b), countEntries(t, joined))
}

func TestJoinConcatenatesSameKeyEntries(t *testing.T) {
	a := []byte(`{"orbit-closure": [{"result": true, "run": 1}]}`)
	b := []byte(`{"orbit-closure": [{"result": true, "run": 2}]}`)

	joined, err := Join(a, b)
	require.NoError(t, err)

	var parsed map[string][]map[string]any
	require.NoError(t, json.Unmarshal(joined, &parsed))
	require.Len(t, parsed["orbit-closure"], 2)
	assert.Equal(t, float64(1), parsed["orbit-closure"][0]["run"])
	assert.Equal(t, float64(2), parsed["orbit-closure"][1]["run"])
}

func TestJoinPushesSharedSurfaceIntoEntries(t *testing.T) {
	doc := []byte(`{
		"surface": {"description": "Ngon([1, 1, 1])", "pickle": ""},
		"orbit-closure": [{"result": null}]
	}`)

	joined, err := Join(doc)
	require.NoError(t, err)

	var parsed map[string][]map[string]any
	require.NoError(t, json.Unmarshal(joined, &parsed))

	want := map[string]any{
		"result": nil,
		"surface": map[string]any{
			"description": "Ngon([1, 1, 1])",
			"pickle":      "",
		},
	}
	if diff := cmp.Diff(want, parsed["orbit-closure"][0]); diff != "" {
		t.Errorf("joined entry mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinKeepsExactDuplicates(t *testing.T) {
	doc := []byte(`{"orbit-closure": [{"result": true}]}`)

	joined, err := Join(doc, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, countEntries(t, joined))
}

func TestJoinOutputLoadsAsCache(t *testing.T) {
	a := []byte(`{"orbit-closure": [{"result": true, "surface": {"description": "Ngon([1, 1, 1])", "pickle": ""}}]}`)
	b := []byte(`{"orbit-closure": [{"result": null, "surface": {"description": "Ngon([1, 1, 1])", "pickle": ""}}]}`)

	joined, err := Join(a, b)
	require.NoError(t, err)

	local := NewLocal()
	require.NoError(t, local.Load(joined))
	assert.Equal(t, 2, local.Size())
}
