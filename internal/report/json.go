package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// JSON accumulates results and writes one machine-readable document on
// Flush:
//
//	{"surface": {...}, "<job-kind>": [entry, ...], ...}
//
// The document is exactly the local cache file format, so the output of a
// run can seed the cache of the next one.
type JSON struct {
	surface surface.Surface
	out     io.Writer
	records map[string][]cache.Entry
}

func NewJSON(s surface.Surface, out io.Writer) *JSON {
	return &JSON{surface: s, out: out, records: make(map[string][]cache.Entry)}
}

func (j *JSON) Log(source, message string, kv ...any) {}

func (j *JSON) Progress(source, unit string, count, total int) {}

func (j *JSON) Result(ctx context.Context, source string, rec Record) error {
	j.records[source] = append(j.records[source], cache.Entry{
		Timestamp: rec.Timestamp,
		Result:    rec.Verdict,
		Data:      rec.Data,
	})
	return nil
}

func (j *JSON) Flush() error {
	ref, err := cache.NewSurfaceRef(j.surface)
	if err != nil {
		return fmt.Errorf("json reporter: %w", err)
	}

	doc := make(map[string]any, len(j.records)+1)
	doc["surface"] = ref
	for kind, entries := range j.records {
		doc[kind] = entries
	}

	enc := json.NewEncoder(j.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("json reporter: %w", err)
	}
	return nil
}
