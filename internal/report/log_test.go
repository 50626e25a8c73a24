package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

func TestLogReporter(t *testing.T) {
	ctx := context.Background()
	s, err := surface.NewNgon([]int{1, 1, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	r := New(NewLog(s, &buf))

	r.Log("orbit-closure", "growing orbit closure", "dimension", 4)
	r.Progress("flow-decompositions", "decompositions", 5, 100)
	r.Progress("saddle-connections", "connections", 12, 0)
	require.NoError(t, r.Result(ctx, "orbit-closure", Record{Verdict: pipeline.VerdictTrue}))
	require.NoError(t, r.Result(ctx, "undetermined-iet", Record{}))
	require.NoError(t, r.Flush())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "log_reporter", buf.Bytes())
}
