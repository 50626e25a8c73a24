package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

// Local is a cache over structured JSON files, the format the JSON
// reporter writes:
//
//	{"surface": {...}, "<job-kind>": [entry, ...], ...}
//
// A top-level "surface" is shared by all entries of the document that do
// not carry their own; plain cache files keep the surface inside each
// entry instead. Several files can be loaded into one cache; entries
// accumulate.
type Local struct {
	// ReadOnly rejects writes with ErrReadOnly.
	ReadOnly bool

	// Pickles resolves externalized surface pickles on Resolve.
	Pickles *Pickles

	entries map[string][]Entry
}

func NewLocal() *Local {
	return &Local{entries: make(map[string][]Entry)}
}

// LoadFile loads a cache or reporter document from disk. IO and parse
// failures are fatal for the run; a cache that silently loses entries
// would force expensive recomputation later.
func (l *Local) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("local cache: %w", err)
	}
	if err := l.Load(data); err != nil {
		return fmt.Errorf("local cache %s: %w", path, err)
	}
	return nil
}

// Load merges one document into the cache.
func (l *Local) Load(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var shared *SurfaceRef
	if raw, ok := doc["surface"]; ok {
		shared = &SurfaceRef{}
		if err := json.Unmarshal(raw, shared); err != nil {
			return err
		}
	}

	for kind, raw := range doc {
		if kind == "surface" {
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("entries for %q: %w", kind, err)
		}
		for i := range entries {
			if entries[i].Surface == nil {
				entries[i].Surface = shared
			}
			if entries[i].Surface != nil {
				entries[i].Surface.Attach(l.Pickles)
			}
		}
		l.entries[kind] = append(l.entries[kind], entries...)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, jobKind string, s surface.Surface) ([]Entry, error) {
	var matched []Entry
	for _, e := range l.entries[jobKind] {
		if e.Surface != nil && e.Surface.Matches(s) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (l *Local) Put(ctx context.Context, jobKind string, e Entry) error {
	if l.ReadOnly {
		return fmt.Errorf("cannot store %s result: %w", jobKind, ErrReadOnly)
	}
	if e.Surface != nil {
		e.Surface.Attach(l.Pickles)
	}
	l.entries[jobKind] = append(l.entries[jobKind], e)
	return nil
}

// Size returns the total number of entries.
func (l *Local) Size() int {
	total := 0
	for _, entries := range l.entries {
		total += len(entries)
	}
	return total
}

// Write serializes the cache as one document with the per-entry surface
// form, suitable for later loading or joining.
func (l *Local) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l.entries)
}
