package report

import (
	"context"
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/store"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// Store upserts finalized results into the queryable results database.
// Entries are append-only in the database, so reporting the same result
// twice is harmless.
type Store struct {
	surface surface.Surface
	db      *store.Store
}

func NewStore(s surface.Surface, db *store.Store) *Store {
	return &Store{surface: s, db: db}
}

func (s *Store) Log(source, message string, kv ...any) {}

func (s *Store) Progress(source, unit string, count, total int) {}

func (s *Store) Result(ctx context.Context, source string, rec Record) error {
	ref, err := cache.NewSurfaceRef(s.surface)
	if err != nil {
		return fmt.Errorf("store reporter: %w", err)
	}
	if err := s.db.Put(ctx, source, cache.Entry{
		Surface:   ref,
		Timestamp: rec.Timestamp,
		Result:    rec.Verdict,
		Data:      rec.Data,
	}); err != nil {
		return fmt.Errorf("store reporter: %w", err)
	}
	return nil
}

func (s *Store) Flush() error { return nil }
