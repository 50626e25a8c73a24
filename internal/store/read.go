package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// ResultsQuery filters result reads. Zero fields do not filter.
type ResultsQuery struct {
	// Job restricts results to one job kind, e.g. "orbit-closure".
	Job string

	// Surface restricts results to surfaces with this description.
	Surface string

	// Result restricts results to one verdict.
	Result *pipeline.Verdict

	// Limit bounds the number of rows returned; 0 means unlimited.
	Limit int
}

// Results returns the stored entries matching the query.
// Results are ordered deterministically: ORDER BY timestamp ASC, id ASC
// COLLATE BINARY, so repeated reads reduce to the same verdict.
//
// Returned entries reference their surface lazily: the description is
// populated from the surfaces table but the pickle is only fetched when
// the ref is resolved.
func (s *Store) Results(ctx context.Context, q ResultsQuery) ([]cache.Entry, error) {
	query := `
		SELECT r.result, r.data, r.timestamp, f.description, f.pickle_digest
		FROM results r
		JOIN surfaces f ON r.surface = f.fingerprint
	`
	var conditions []string
	var args []any
	if q.Job != "" {
		conditions = append(conditions, "r.job = ?")
		args = append(args, q.Job)
	}
	if q.Surface != "" {
		conditions = append(conditions, "f.description = ?")
		args = append(args, q.Surface)
	}
	if q.Result != nil {
		verdict, err := q.Result.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("query results: %w", err)
		}
		conditions = append(conditions, "r.result = ?")
		args = append(args, string(verdict))
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY r.timestamp ASC, r.id COLLATE BINARY ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	entries := []cache.Entry{}
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return entries, nil
}

// Get returns all stored entries for the job kind on the surface.
// Implements cache.Cache. The lookup goes through the surface fingerprint,
// so distinct surfaces with coincidentally equal descriptions cannot
// shadow each other.
func (s *Store) Get(ctx context.Context, jobKind string, surf surface.Surface) ([]cache.Entry, error) {
	fingerprint, err := surface.Fingerprint(surf)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.result, r.data, r.timestamp, f.description, f.pickle_digest
		FROM results r
		JOIN surfaces f ON r.surface = f.fingerprint
		WHERE r.job = ? AND r.surface = ?
		ORDER BY r.timestamp ASC, r.id COLLATE BINARY ASC
	`, jobKind, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	return entries, nil
}

// Unpickle returns the pickle blob stored under the digest.
// Implements cache.Provider, so refs read from the store materialize
// their surface through the store on first access.
func (s *Store) Unpickle(digest string) ([]byte, error) {
	var encoded string
	err := s.db.QueryRow(`
		SELECT pickle FROM surfaces WHERE pickle_digest = ?
	`, digest).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", cache.ErrUnknownPickle, digest)
	}
	if err != nil {
		return nil, fmt.Errorf("read pickle %s: %w", digest, err)
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("read pickle %s: %w", digest, err)
	}
	return blob, nil
}

// scanEntry scans a result row into a cache entry.
func (s *Store) scanEntry(rows *sql.Rows) (cache.Entry, error) {
	var resultJSON, dataJSON, stamp, description, pickleDigest string
	if err := rows.Scan(&resultJSON, &dataJSON, &stamp, &description, &pickleDigest); err != nil {
		return cache.Entry{}, fmt.Errorf("scan result: %w", err)
	}

	var entry cache.Entry
	if err := entry.Result.UnmarshalJSON([]byte(resultJSON)); err != nil {
		return cache.Entry{}, fmt.Errorf("scan result: %w", err)
	}
	data, err := unmarshalData(dataJSON)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("scan result: %w", err)
	}
	entry.Data = data

	parsed, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("scan result timestamp: %w", err)
	}
	entry.Timestamp = parsed

	entry.Surface = &cache.SurfaceRef{Description: description, Pickle: pickleDigest}
	entry.Surface.Attach(cache.NewPickles(s))

	return entry, nil
}
