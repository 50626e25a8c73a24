package cache

import (
	"context"
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

// Stack consults several caches as one. Lookups concatenate the entries
// of all caches in order; writes go to the first cache only, so seeded
// read caches further down are never modified.
type Stack struct {
	Caches []Cache
}

func NewStack(caches ...Cache) *Stack {
	return &Stack{Caches: caches}
}

func (s *Stack) Get(ctx context.Context, jobKind string, surf surface.Surface) ([]Entry, error) {
	entries := []Entry{}
	for _, c := range s.Caches {
		got, err := c.Get(ctx, jobKind, surf)
		if err != nil {
			return nil, err
		}
		entries = append(entries, got...)
	}
	return entries, nil
}

func (s *Stack) Put(ctx context.Context, jobKind string, e Entry) error {
	if len(s.Caches) == 0 {
		return fmt.Errorf("no cache to write %s entry to", jobKind)
	}
	return s.Caches[0].Put(ctx, jobKind, e)
}
