package jobs

import (
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

// Reducer combines the cached results of previous runs into one verdict.
// Reductions are associative and order-independent: the verdict must not
// depend on which entry is seen first.
type Reducer func(entries []cache.Entry) (pipeline.Verdict, error)

// ReduceNothing ignores all entries. Used by data-collection goals that
// never resolve.
func ReduceNothing(entries []cache.Entry) (pipeline.Verdict, error) {
	return pipeline.Undetermined, nil
}

// ReduceAnyTrue resolves true if any previous run did. A cached false is
// contradictory for a goal that can only ever conclude positively and
// points at a corrupted cache.
func ReduceAnyTrue(entries []cache.Entry) (pipeline.Verdict, error) {
	verdict := pipeline.Undetermined
	for _, e := range entries {
		switch e.Result {
		case pipeline.VerdictTrue:
			verdict = pipeline.VerdictTrue
		case pipeline.VerdictFalse:
			return pipeline.Undetermined, fmt.Errorf("cache holds a negative result for a goal that can only resolve positively")
		}
	}
	return verdict, nil
}

// ReduceAnyFalse resolves false if any previous run did; the mirror image
// of ReduceAnyTrue.
func ReduceAnyFalse(entries []cache.Entry) (pipeline.Verdict, error) {
	verdict := pipeline.Undetermined
	for _, e := range entries {
		switch e.Result {
		case pipeline.VerdictFalse:
			verdict = pipeline.VerdictFalse
		case pipeline.VerdictTrue:
			return pipeline.Undetermined, fmt.Errorf("cache holds a positive result for a goal that can only resolve negatively")
		}
	}
	return verdict, nil
}

// ReduceConsensus resolves to whatever any previous run concluded, in
// either direction. Previous runs contradicting each other point at a
// corrupted cache.
func ReduceConsensus(entries []cache.Entry) (pipeline.Verdict, error) {
	verdict := pipeline.Undetermined
	for _, e := range entries {
		if e.Result == pipeline.Undetermined {
			continue
		}
		if verdict.Resolved() && e.Result != verdict {
			return pipeline.Undetermined, fmt.Errorf("cache holds contradicting results for the same goal")
		}
		verdict = e.Result
	}
	return verdict, nil
}

// reducers maps job kinds to their reduction. The registry is the
// extension point for new goals; kinds without an entry reduce to
// undetermined.
var reducers = map[string]Reducer{
	"orbit-closure":                 ReduceAnyTrue,
	"cylinder-periodic-direction":   ReduceAnyTrue,
	"completely-cylinder-periodic":  ReduceAnyFalse,
	"undetermined-iet":              ReduceNothing,
	"boshernitzan-conjecture":       ReduceConsensus,
	"cylinder-periodic-asymptotics": ReduceNothing,
}

// RegisterReducer installs the reduction for a job kind.
func RegisterReducer(kind string, r Reducer) {
	reducers[kind] = r
}

// ReducerFor returns the registered reduction for a job kind.
func ReducerFor(kind string) Reducer {
	if r, ok := reducers[kind]; ok {
		return r
	}
	return ReduceNothing
}
