package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// WriteSurface inserts the surface into the store.
// Uses ON CONFLICT(fingerprint) DO NOTHING for idempotency - surfaces are
// content-addressed, so a duplicate write carries the same data anyway.
func (s *Store) WriteSurface(ctx context.Context, surf surface.Surface) error {
	if s.ReadOnly {
		return fmt.Errorf("write surface: %w", cache.ErrReadOnly)
	}
	return writeSurface(ctx, s, surf)
}

func writeSurface(ctx context.Context, s *Store, surf surface.Surface) error {
	fingerprint, err := surface.Fingerprint(surf)
	if err != nil {
		return fmt.Errorf("write surface: %w", err)
	}
	blob, err := surface.Pickle(surf)
	if err != nil {
		return fmt.Errorf("write surface: %w", err)
	}
	digest, err := surface.PickleDigest(surf)
	if err != nil {
		return fmt.Errorf("write surface: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO surfaces
		(fingerprint, description, pickle, pickle_digest)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		fingerprint,
		surf.Describe(),
		base64.StdEncoding.EncodeToString(blob),
		digest,
	)
	if err != nil {
		return fmt.Errorf("write surface: %w", err)
	}
	return nil
}

// Put appends a result entry, inserting the surface first if it is new.
// Implements cache.Cache.
//
// Entries are append-only: every Put creates a new row under a fresh id,
// and ON CONFLICT(id) DO NOTHING makes accidental duplicate ids harmless.
// A read-only store rejects the write with cache.ErrReadOnly.
func (s *Store) Put(ctx context.Context, jobKind string, e cache.Entry) error {
	if s.ReadOnly {
		return fmt.Errorf("cannot store %s result: %w", jobKind, cache.ErrReadOnly)
	}
	if e.Surface == nil {
		return fmt.Errorf("cannot store %s result without a surface", jobKind)
	}

	surf, err := e.Surface.Resolve()
	if err != nil {
		return fmt.Errorf("store %s result: %w", jobKind, err)
	}
	if err := writeSurface(ctx, s, surf); err != nil {
		return err
	}
	fingerprint, err := surface.Fingerprint(surf)
	if err != nil {
		return fmt.Errorf("store %s result: %w", jobKind, err)
	}

	dataJSON, err := marshalData(e.Data)
	if err != nil {
		return fmt.Errorf("store %s result: %w", jobKind, err)
	}
	resultJSON, err := e.Result.MarshalJSON()
	if err != nil {
		return fmt.Errorf("store %s result: %w", jobKind, err)
	}

	stamp := e.Timestamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(id, job, surface, result, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		s.newID(),
		jobKind,
		fingerprint,
		string(resultJSON),
		dataJSON,
		stamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store %s result: %w", jobKind, err)
	}
	return nil
}

func (s *Store) newID() string {
	if s.IDs != nil {
		return s.IDs()
	}
	return uuid.Must(uuid.NewV7()).String()
}
