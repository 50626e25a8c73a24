package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

func TestParseSurfaceNgon(t *testing.T) {
	s, err := parseSurface(Segment{Token: "ngon", Args: []string{"-a", "1", "-a", "1", "-a", "2"}})
	require.NoError(t, err)
	assert.Equal(t, "Ngon([1, 1, 2])", s.Describe())
}

func TestParseSurfacePickle(t *testing.T) {
	s, err := parseSurface(Segment{Token: "pickle", Args: []string{
		"--base64", "eyJhbmdsZXMiOlsxLDEsMV0sInR5cGUiOiJOZ29uIn0=",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Ngon([1, 1, 1])", s.Describe())
}

func TestParseSurfaceRejectsBadAngles(t *testing.T) {
	_, err := parseSurface(Segment{Token: "ngon", Args: []string{"-a", "1"}})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseSourceNgons(t *testing.T) {
	src, err := parseSource(Segment{Token: "ngons", Args: []string{"-n", "3", "--limit", "7", "--count", "5", "--include-literature"}})
	require.NoError(t, err)

	ngons, ok := src.(*surface.Ngons)
	require.True(t, ok)
	assert.Equal(t, 3, ngons.Vertices)
	assert.Equal(t, 7, ngons.Limit)
	assert.Equal(t, 5, ngons.Count)
	assert.True(t, ngons.IncludeLiterature)
}

func TestParseSourceRequiresLimit(t *testing.T) {
	_, err := parseSource(Segment{Token: "ngons", Args: []string{"-n", "3"}})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseGoal(t *testing.T) {
	spec, err := parseGoal(Segment{Token: "orbit-closure", Args: []string{"--limit", "32", "--expansions", "2"}})
	require.NoError(t, err)
	assert.Equal(t, goalSpec{kind: "orbit-closure", limit: 32, expansions: 2}, spec)

	spec, err = parseGoal(Segment{Token: "undetermined-iet"})
	require.NoError(t, err)
	assert.Equal(t, goalSpec{kind: "undetermined-iet"}, spec)
}

func TestParseReporter(t *testing.T) {
	spec, err := parseReporter(Segment{Token: "json", Args: []string{"--prefix", "out"}})
	require.NoError(t, err)
	assert.Equal(t, reporterSpec{kind: "json", prefix: "out"}, spec)

	spec, err = parseReporter(Segment{Token: "store", Args: []string{"--db", "results.db"}})
	require.NoError(t, err)
	assert.Equal(t, reporterSpec{kind: "store", db: "results.db"}, spec)

	_, err = parseReporter(Segment{Token: "store"})
	require.Error(t, err)

	spec, err = parseReporter(Segment{Token: "log"})
	require.NoError(t, err)
	assert.Equal(t, reporterSpec{kind: "log"}, spec)
}

func TestAssembleDefaultsToLogReporter(t *testing.T) {
	b := &build{}
	require.NoError(t, b.assemble([]Segment{{Token: "orbit-closure"}}))
	require.Len(t, b.reporters, 1)
	assert.Equal(t, "log", b.reporters[0].kind)
}

func TestAssembleRequiresAGoal(t *testing.T) {
	b := &build{}
	err := b.assemble([]Segment{{Token: "json"}})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAssembleReadsProcessorLimit(t *testing.T) {
	b := &build{}
	require.NoError(t, b.assemble([]Segment{
		{Token: "flow-decompositions", Args: []string{"--limit", "1024"}},
		{Token: "orbit-closure"},
	}))
	assert.Equal(t, 1024, b.induction)
}
