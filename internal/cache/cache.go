// Package cache stores and retrieves the results of previous runs.
//
// Entries are append-only: a (job kind, surface, parameters) key can
// accumulate entries from many runs and nothing is ever rewritten. Goals
// reduce the accumulated entries to a verdict with their own per-kind
// reduction, so the cache itself never interprets results.
package cache

import (
	"context"
	"errors"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

// ErrReadOnly is returned by Put on caches opened in read-only mode.
// Writing to a read-only cache is a configuration mistake, not a crash.
var ErrReadOnly = errors.New("cache is read-only")

// Cache looks up and records results of job invocations.
type Cache interface {
	// Get returns all cached entries for the job kind on the surface, in
	// unspecified order. An empty slice is a miss, not an error.
	Get(ctx context.Context, jobKind string, s surface.Surface) ([]Entry, error)

	// Put appends an entry for the job kind. Entries are never replaced.
	Put(ctx context.Context, jobKind string, e Entry) error
}

// Nothing is a cache that does not cache. It is the default when no cache
// was selected on the command line.
type Nothing struct{}

func (Nothing) Get(ctx context.Context, jobKind string, s surface.Surface) ([]Entry, error) {
	return nil, nil
}

func (Nothing) Put(ctx context.Context, jobKind string, e Entry) error {
	return nil
}
