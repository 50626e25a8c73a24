package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flatsurf/flatsurvey/internal/cache"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/surface"
)

// YAML accumulates results and writes one document on Flush:
//
//	surface:
//	    description: Ngon([1, 1, 1])
//	    pickle: ...
//	completely-cylinder-periodic:
//	    - result: null
//	      directions: 17
type YAML struct {
	surface surface.Surface
	out     io.Writer
	records map[string][]Record
}

func NewYAML(s surface.Surface, out io.Writer) *YAML {
	return &YAML{surface: s, out: out, records: make(map[string][]Record)}
}

func (y *YAML) Log(source, message string, kv ...any) {}

func (y *YAML) Progress(source, unit string, count, total int) {}

func (y *YAML) Result(ctx context.Context, source string, rec Record) error {
	y.records[source] = append(y.records[source], rec)
	return nil
}

func (y *YAML) Flush() error {
	ref, err := cache.NewSurfaceRef(y.surface)
	if err != nil {
		return fmt.Errorf("yaml reporter: %w", err)
	}

	doc := make(map[string]any, len(y.records)+1)
	doc["surface"] = map[string]string{
		"description": ref.Description,
		"pickle":      ref.Pickle,
	}
	for kind, records := range y.records {
		rendered := make([]map[string]any, len(records))
		for i, rec := range records {
			rendered[i] = renderRecord(rec)
		}
		doc[kind] = rendered
	}

	enc := yaml.NewEncoder(y.out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("yaml reporter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml reporter: %w", err)
	}
	return nil
}

// renderRecord flattens a record into YAML-friendly values. The verdict
// becomes nil/true/false so the YAML reads null for undetermined.
func renderRecord(rec Record) map[string]any {
	fields := make(map[string]any, len(rec.Data)+2)
	for k, v := range rec.Data {
		fields[k] = v
	}
	switch rec.Verdict {
	case pipeline.VerdictTrue:
		fields["result"] = true
	case pipeline.VerdictFalse:
		fields["result"] = false
	default:
		fields["result"] = nil
	}
	fields["timestamp"] = rec.Timestamp.UTC().Format(time.RFC3339Nano)
	return fields
}
