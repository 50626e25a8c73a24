package cache

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

func pickledDocument(t *testing.T) ([]byte, string) {
	t.Helper()
	s, err := surface.NewNgon([]int{1, 1, 1})
	require.NoError(t, err)
	ref, err := NewSurfaceRef(s)
	require.NoError(t, err)

	doc := map[string]any{
		"orbit-closure": []any{
			map[string]any{"result": true, "surface": ref},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw, ref.Pickle
}

func TestExternalizeMovesLargePicklesToSideFiles(t *testing.T) {
	dir := t.TempDir()
	doc, embedded := pickledDocument(t)

	// A threshold below the pickle size forces externalization.
	out, moved, err := ExternalizePickles(doc, dir, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.NotContains(t, string(out), embedded)

	var parsed map[string][]map[string]any
	require.NoError(t, json.Unmarshal(out, &parsed))
	digest := parsed["orbit-closure"][0]["surface"].(map[string]any)["pickle"].(string)
	assert.NotEqual(t, embedded, digest)

	blob, err := DirectoryProvider{Dir: dir}.Unpickle(digest)
	require.NoError(t, err)
	assert.Equal(t, embedded, base64.StdEncoding.EncodeToString(blob))
}

func TestExternalizeLeavesSmallPicklesEmbedded(t *testing.T) {
	dir := t.TempDir()
	doc, _ := pickledDocument(t)

	out, moved, err := ExternalizePickles(doc, dir, 100000)
	require.NoError(t, err)
	assert.Zero(t, moved)

	var before, after any
	require.NoError(t, json.Unmarshal(doc, &before))
	require.NoError(t, json.Unmarshal(out, &after))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("document changed without externalization (-before +after):\n%s", diff)
	}
}

func TestExternalizeInflateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc, _ := pickledDocument(t)

	externalized, moved, err := ExternalizePickles(doc, dir, 8)
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	inflated, count, err := InflatePickles(externalized, NewPickles(DirectoryProvider{Dir: dir}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var before, after any
	require.NoError(t, json.Unmarshal(doc, &before))
	require.NoError(t, json.Unmarshal(inflated, &after))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("round trip mismatch (-before +after):\n%s", diff)
	}
}

func TestExternalizedRefResolvesThroughProviders(t *testing.T) {
	dir := t.TempDir()
	s, err := surface.NewNgon([]int{1, 2, 2})
	require.NoError(t, err)

	blob, err := surface.Pickle(s)
	require.NoError(t, err)
	digest, err := writePickle(dir, blob)
	require.NoError(t, err)

	ref := &SurfaceRef{Description: s.Describe(), Pickle: digest}
	ref.Attach(NewPickles(DirectoryProvider{Dir: dir}))

	resolved, err := ref.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Ngon([1, 2, 2])", resolved.Describe())

	// Resolution is idempotent.
	again, err := ref.Resolve()
	require.NoError(t, err)
	assert.Same(t, resolved, again)
}

func TestUnresolvableRefReportsMissingProviders(t *testing.T) {
	ref := &SurfaceRef{Description: "Ngon([1, 1, 1])", Pickle: "0000000000000000"}
	_, err := ref.Resolve()
	assert.Error(t, err)

	ref.Attach(NewPickles())
	_, err = ref.Resolve()
	assert.ErrorIs(t, err, ErrUnknownPickle)
}

func TestStaticProvider(t *testing.T) {
	s, err := surface.NewNgon([]int{1, 1, 1})
	require.NoError(t, err)
	blob, err := surface.Pickle(s)
	require.NoError(t, err)

	provider := NewStaticProvider(blob)
	digest, err := surface.PickleDigest(s)
	require.NoError(t, err)

	got, err := provider.Unpickle(digest)
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	_, err = provider.Unpickle("unknown")
	assert.ErrorIs(t, err, ErrUnknownPickle)
}
