package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
	"github.com/flatsurf/flatsurvey/internal/surface"
	"github.com/flatsurf/flatsurvey/internal/worker"
)

type exhaustedProducer struct {
	pipeline.Emitter
}

func (p *exhaustedProducer) Name() string { return "exhausted" }

func (p *exhaustedProducer) Produce(ctx context.Context) (bool, error) {
	p.MarkExhausted()
	return false, nil
}

type doneGoal struct {
	verdict pipeline.Verdict
}

func (g *doneGoal) Name() string              { return "done-goal" }
func (g *doneGoal) Resolved() bool            { return false }
func (g *doneGoal) Verdict() pipeline.Verdict { return g.verdict }

func (g *doneGoal) ConsumeCache(ctx context.Context) error { return nil }

func (g *doneGoal) Report(ctx context.Context) error { return nil }

func (g *doneGoal) Consume(ctx context.Context, product any, cost time.Duration) (bool, error) {
	return false, nil
}

func ngon(t *testing.T, angles ...int) surface.Surface {
	t.Helper()
	s, err := surface.NewNgon(angles)
	require.NoError(t, err)
	return s
}

// spawnIdle builds workers whose producers are immediately dry, so every
// surface ends Done after one step.
func spawnIdle(ctx context.Context, s surface.Surface) (*worker.Worker, error) {
	return worker.New(worker.Options{
		Surface:   s,
		Producers: []pipeline.Producer{&exhaustedProducer{}},
		Goals:     []pipeline.Goal{&doneGoal{}},
		Report:    report.New(),
	}), nil
}

func TestRunInterleavesSourcesRoundRobin(t *testing.T) {
	opts := Options{
		Sources: []surface.Source{
			&surface.Literal{Surfaces: []surface.Surface{ngon(t, 1, 1, 1), ngon(t, 1, 2, 2)}},
			&surface.Literal{Surfaces: []surface.Surface{ngon(t, 1, 1, 2)}},
		},
		Spawn: spawnIdle,
	}

	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, summary.Ok())

	var order []string
	for _, r := range summary.Results() {
		assert.Equal(t, worker.StateDone, r.State)
		order = append(order, r.Surface)
	}
	assert.Equal(t, []string{"Ngon([1, 1, 1])", "Ngon([1, 1, 2])", "Ngon([1, 2, 2])"}, order)
}

func TestRunIsolatesSurfaceFailures(t *testing.T) {
	failing := ngon(t, 1, 1, 2)
	spawn := func(ctx context.Context, s surface.Surface) (*worker.Worker, error) {
		if s.Describe() == failing.Describe() {
			return nil, errors.New("backend refused the surface")
		}
		return spawnIdle(ctx, s)
	}

	opts := Options{
		Sources: []surface.Source{
			&surface.Literal{Surfaces: []surface.Surface{ngon(t, 1, 1, 1), failing, ngon(t, 1, 2, 2)}},
		},
		Spawn: spawn,
	}

	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.False(t, summary.Ok())
	assert.Equal(t, 1, summary.Failed())

	results := summary.Results()
	require.Len(t, results, 3)
	assert.Equal(t, worker.StateDone, results[0].State)
	assert.Equal(t, worker.StateFailed, results[1].State)
	assert.ErrorContains(t, results[1].Err, "refused")
	assert.Equal(t, worker.StateDone, results[2].State)
}

func TestRunParallelInvestigatesEverySurface(t *testing.T) {
	surfaces := []surface.Surface{ngon(t, 1, 1, 1), ngon(t, 1, 1, 2), ngon(t, 1, 2, 2), ngon(t, 2, 2, 2)}
	opts := Options{
		Sources:  []surface.Source{&surface.Literal{Surfaces: surfaces}},
		Spawn:    spawnIdle,
		Parallel: 2,
	}

	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, summary.Ok())

	var got []string
	for _, r := range summary.Results() {
		got = append(got, r.Surface)
	}
	want := make([]string, len(surfaces))
	for i, s := range surfaces {
		want[i] = s.Describe()
	}
	assert.ElementsMatch(t, want, got)
}

// tricklingProducer yields forever, slowly, so a run only ends when its
// deadline expires.
type tricklingProducer struct {
	pipeline.Emitter
}

func (p *tricklingProducer) Name() string { return "trickling" }

func (p *tricklingProducer) Produce(ctx context.Context) (bool, error) {
	time.Sleep(time.Millisecond)
	return true, nil
}

func TestRunEndsWithoutErrorOnDeadline(t *testing.T) {
	spawn := func(ctx context.Context, s surface.Surface) (*worker.Worker, error) {
		return worker.New(worker.Options{
			Surface:   s,
			Producers: []pipeline.Producer{&tricklingProducer{}},
			Goals:     []pipeline.Goal{&doneGoal{}},
			Report:    report.New(),
		}), nil
	}

	surfaces := []surface.Surface{ngon(t, 1, 1, 1), ngon(t, 1, 1, 2), ngon(t, 1, 2, 2), ngon(t, 2, 2, 2)}
	opts := Options{
		Sources: []surface.Source{&surface.Literal{Surfaces: surfaces}},
		Spawn:   spawn,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	summary, err := Run(ctx, opts)
	require.NoError(t, err)
	require.True(t, summary.Ok())

	results := summary.Results()
	require.NotEmpty(t, results)
	assert.Less(t, len(results), len(surfaces))
	for _, r := range results {
		assert.Equal(t, worker.StateDone, r.State)
		assert.NoError(t, r.Err)
	}
}

func TestRunReturnsErrorOnCancellation(t *testing.T) {
	spawn := func(ctx context.Context, s surface.Surface) (*worker.Worker, error) {
		return worker.New(worker.Options{
			Surface:   s,
			Producers: []pipeline.Producer{&tricklingProducer{}},
			Goals:     []pipeline.Goal{&doneGoal{}},
			Report:    report.New(),
		}), nil
	}

	opts := Options{
		Sources: []surface.Source{&surface.Literal{Surfaces: []surface.Surface{ngon(t, 1, 1, 1), ngon(t, 1, 1, 2)}}},
		Spawn:   spawn,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Run(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }

func (brokenSource) Next() (surface.Surface, bool, error) {
	return nil, false, errors.New("enumeration broke")
}

func TestRunAbortsOnSourceFailure(t *testing.T) {
	opts := Options{
		Sources: []surface.Source{brokenSource{}},
		Spawn:   spawnIdle,
	}

	_, err := Run(context.Background(), opts)
	require.ErrorContains(t, err, "enumeration broke")
	require.ErrorContains(t, err, "broken")
}
