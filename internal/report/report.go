// Package report publishes job results and progress.
//
// Reporters are constructed per surface and attached to one Report, the
// fan-out the jobs talk to. Delivery to one reporter is independent of
// the others: a broken reporter never suppresses the remaining ones.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

// Record is the immutable snapshot of one job's final state on one
// surface.
type Record struct {
	// Verdict is the job's tri-state outcome.
	Verdict pipeline.Verdict

	// Data holds the job-specific fields that accompany the verdict,
	// e.g. {"dimension": 4, "directions": 17}.
	Data map[string]any

	// Timestamp is the moment the job finalized.
	Timestamp time.Time
}

// Reporter consumes results and progress for one surface.
type Reporter interface {
	// Log writes an informational message from the named source, with
	// optional alternating key/value pairs.
	Log(source, message string, kv ...any)

	// Progress notes that source is at count of total in multiples of
	// unit. A total of 0 means the total is unknown.
	Progress(source, unit string, count, total int)

	// Result reports the final state of the named source. Called exactly
	// once per source, including for failures and cache hits.
	Result(ctx context.Context, source string, rec Record) error

	// Flush writes out everything accumulated so far.
	Flush() error
}

// Report fans out to all attached reporters.
type Report struct {
	reporters []Reporter
}

func New(reporters ...Reporter) *Report {
	return &Report{reporters: reporters}
}

func (r *Report) Log(source, message string, kv ...any) {
	for _, reporter := range r.reporters {
		reporter.Log(source, message, kv...)
	}
}

func (r *Report) Progress(source, unit string, count, total int) {
	for _, reporter := range r.reporters {
		reporter.Progress(source, unit, count, total)
	}
}

// Result delivers the record to every reporter. All reporters are tried;
// failures are collected and returned joined.
func (r *Report) Result(ctx context.Context, source string, rec Record) error {
	var errs []error
	for _, reporter := range r.reporters {
		if err := reporter.Result(ctx, source, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every reporter, trying all of them.
func (r *Report) Flush() error {
	var errs []error
	for _, reporter := range r.reporters {
		if err := reporter.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
