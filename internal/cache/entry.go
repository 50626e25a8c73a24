package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/pipeline"
)

// Entry is one cached invocation of a job on a surface.
//
// On the wire an entry is a flat JSON object: the fixed fields below plus
// the job-specific data fields spliced into the top level, e.g.
//
//	{"timestamp": ..., "result": true, "dense": true, "surface": {...}}
//
// so files written by old runs and by the JSON reporter parse alike.
type Entry struct {
	// Surface identifies the surface the entry belongs to. May be nil in
	// documents where a shared surface is declared once at the top level.
	Surface *SurfaceRef

	// Timestamp is the moment the result was produced.
	Timestamp time.Time

	// Result is the verdict of the invocation.
	Result pipeline.Verdict

	// Data holds the job-specific fields: invocation parameters and
	// resource counters, e.g. {"limit": 64, "directions": 12}.
	Data map[string]any
}

// reserved are the fixed entry fields; everything else round-trips
// through Data.
func reserved(key string) bool {
	switch key {
	case "surface", "timestamp", "result":
		return true
	}
	return false
}

func (e Entry) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(e.Data)+3)
	for k, v := range e.Data {
		if reserved(k) {
			return nil, fmt.Errorf("entry data must not shadow the %q field", k)
		}
		doc[k] = v
	}
	doc["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	doc["result"] = e.Result
	if e.Surface != nil {
		doc["surface"] = e.Surface
	}
	return json.Marshal(doc)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("cache entry: %w", err)
	}

	if raw, ok := doc["timestamp"]; ok {
		var stamp string
		if err := json.Unmarshal(raw, &stamp); err != nil {
			return fmt.Errorf("cache entry timestamp: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return fmt.Errorf("cache entry timestamp: %w", err)
		}
		e.Timestamp = parsed
	}

	if raw, ok := doc["result"]; ok {
		if err := e.Result.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("cache entry result: %w", err)
		}
	}

	if raw, ok := doc["surface"]; ok {
		e.Surface = &SurfaceRef{}
		if err := json.Unmarshal(raw, e.Surface); err != nil {
			return fmt.Errorf("cache entry surface: %w", err)
		}
	}

	e.Data = make(map[string]any)
	for k, raw := range doc {
		if reserved(k) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("cache entry field %q: %w", k, err)
		}
		e.Data[k] = v
	}
	return nil
}
