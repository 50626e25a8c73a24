package worker

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
)

type stubProducer struct {
	pipeline.Emitter

	products int
	errAt    int // 1-based produce call that fails; 0 never fails

	produced int
}

func (p *stubProducer) Name() string { return "stub-producer" }

func (p *stubProducer) Produce(ctx context.Context) (bool, error) {
	if p.Exhausted() {
		return false, nil
	}
	p.produced++
	if p.errAt > 0 && p.produced >= p.errAt {
		return false, errors.New("backend crashed")
	}
	if p.produced > p.products {
		p.MarkExhausted()
		return false, nil
	}
	return true, p.Notify(ctx, p.produced, 0)
}

type stubGoal struct {
	name          string
	resolveAfter  int // consume count at which the goal resolves; 0 never
	cacheResolves bool
	cacheErr      error

	consumed int
	resolved bool
	verdict  pipeline.Verdict
	reports  int
}

func (g *stubGoal) Name() string              { return g.name }
func (g *stubGoal) Resolved() bool            { return g.resolved }
func (g *stubGoal) Verdict() pipeline.Verdict { return g.verdict }

func (g *stubGoal) Consume(ctx context.Context, product any, cost time.Duration) (bool, error) {
	g.consumed++
	if g.resolveAfter > 0 && g.consumed >= g.resolveAfter {
		g.resolved = true
		g.verdict = pipeline.VerdictTrue
	}
	return g.resolved, nil
}

func (g *stubGoal) ConsumeCache(ctx context.Context) error {
	if g.cacheErr != nil {
		return g.cacheErr
	}
	if g.cacheResolves {
		g.resolved = true
		g.verdict = pipeline.VerdictTrue
	}
	return nil
}

func (g *stubGoal) Report(ctx context.Context) error {
	g.reports++
	return nil
}

func testWorker(t *testing.T, producer *stubProducer, goals []pipeline.Goal, opts Options) *Worker {
	t.Helper()
	s, err := surface.NewNgon([]int{1, 1, 1})
	require.NoError(t, err)

	for _, g := range goals {
		producer.Register(g)
	}
	opts.Surface = s
	opts.Producers = []pipeline.Producer{producer}
	opts.Goals = goals
	if opts.Report == nil {
		opts.Report = report.New()
	}
	if opts.Tokens == nil {
		opts.Tokens = NewFixedGenerator("run-0001")
	}
	return New(opts)
}

func TestRunEndsWhenEveryGoalResolves(t *testing.T) {
	producer := &stubProducer{products: 10}
	goal := &stubGoal{name: "goal", resolveAfter: 3}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, StateDone, w.State())
	assert.Equal(t, 3, producer.produced)
	assert.Equal(t, 1, goal.reports)
	assert.Equal(t, "run-0001", w.Token())
}

func TestRunEndsDoneWhenProducersRunDry(t *testing.T) {
	producer := &stubProducer{products: 2}
	goal := &stubGoal{name: "goal"}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, StateDone, w.State())
	assert.Equal(t, 2, goal.consumed)
	assert.Equal(t, 1, goal.reports)
	assert.Equal(t, pipeline.Undetermined, goal.Verdict())
}

func TestRunStopsAtStepBudget(t *testing.T) {
	producer := &stubProducer{products: 100}
	goal := &stubGoal{name: "goal"}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{Budget: NewBudget(2)})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, StateDone, w.State())
	assert.Equal(t, 2, producer.produced)
	assert.Equal(t, 1, goal.reports)
	assert.Equal(t, pipeline.Undetermined, goal.Verdict())
}

func TestRunWithCachedGoalsNeverTouchesTheBackend(t *testing.T) {
	producer := &stubProducer{products: 100}
	goal := &stubGoal{name: "goal", cacheResolves: true}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, StateDone, w.State())
	assert.Equal(t, 0, producer.produced)
}

func TestRunFailsOnCacheError(t *testing.T) {
	producer := &stubProducer{products: 100}
	goal := &stubGoal{name: "goal", cacheErr: errors.New("cache unreachable")}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	err := w.Run(context.Background())
	require.ErrorContains(t, err, "cache unreachable")
	assert.Equal(t, StateFailed, w.State())
	assert.Equal(t, 0, producer.produced)
}

func TestRunFailsButStillReportsOnJobError(t *testing.T) {
	producer := &stubProducer{products: 100, errAt: 2}
	goal := &stubGoal{name: "goal"}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	err := w.Run(context.Background())
	require.ErrorContains(t, err, "backend crashed")
	assert.Equal(t, StateFailed, w.State())
	assert.Equal(t, 1, goal.reports)
}

func TestRunReleasesResources(t *testing.T) {
	tests := []struct {
		name  string
		errAt int
	}{
		{"on success", 0},
		{"on failure", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			released := 0
			producer := &stubProducer{products: 1, errAt: tt.errAt}
			goal := &stubGoal{name: "goal"}
			w := testWorker(t, producer, []pipeline.Goal{goal}, Options{
				Release: func() error { released++; return nil },
			})

			_ = w.Run(context.Background())
			assert.Equal(t, 1, released)
		})
	}
}

func TestRunEndsDoneOnDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	producer := &stubProducer{products: 100}
	goal := &stubGoal{name: "goal"}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, StateDone, w.State())
	assert.Equal(t, 0, producer.produced)
	assert.Equal(t, 1, goal.reports)
}

func TestRunFailsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	producer := &stubProducer{products: 100}
	goal := &stubGoal{name: "goal"}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, w.State())
	assert.Equal(t, 1, goal.reports)
}

func TestRunRefusesToRunTwice(t *testing.T) {
	producer := &stubProducer{products: 1}
	goal := &stubGoal{name: "goal", cacheResolves: true}
	w := testWorker(t, producer, []pipeline.Goal{goal}, Options{})

	require.NoError(t, w.Run(context.Background()))
	require.ErrorContains(t, w.Run(context.Background()), "already run")
}

func TestBudgetCheck(t *testing.T) {
	b := NewBudget(2)
	require.NoError(t, b.Check("run"))
	require.NoError(t, b.Check("run"))
	err := b.Check("run")
	require.Error(t, err)
	assert.True(t, IsBudgetExceeded(err))
	assert.ErrorContains(t, err, "3 steps > 2 limit")
	assert.Equal(t, 3, b.Used())
}

func TestNilBudgetIsUnlimited(t *testing.T) {
	var b *Budget
	for i := 0; i < 1000; i++ {
		require.NoError(t, b.Check("run"))
	}
	assert.Equal(t, 0, b.Used())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
}
