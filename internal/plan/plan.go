// Package plan loads survey plan files.
//
// A plan is a CUE document validated against the embedded schema and
// compiled into the same explicit configuration structs the CLI builds
// from its command line. The CLI and the plan loader are two front ends
// to one wiring path.
package plan

import (
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

// Plan is a validated survey description.
type Plan struct {
	// Name identifies the survey in logs and output files.
	Name string `json:"name"`

	Source    Source     `json:"source"`
	Goals     []Goal     `json:"goals"`
	Reporters []Reporter `json:"reporters"`
	Caches    []CacheRef `json:"caches"`
	Budget    Budget     `json:"budget"`

	// Parallel bounds the number of surfaces investigated at once.
	Parallel int `json:"parallel"`

	// CacheOnly resolves every goal from the cache without touching the
	// geometry backend.
	CacheOnly bool `json:"cacheOnly"`
}

// Source describes where the surfaces of the survey come from.
type Source struct {
	// Kind selects the enumerator, "ngons" or "pickle".
	Kind string `json:"kind"`

	// Vertices, Limit, Count and IncludeLiterature configure the ngons
	// enumerator.
	Vertices          int  `json:"vertices,omitempty"`
	Limit             int  `json:"limit,omitempty"`
	Count             int  `json:"count,omitempty"`
	IncludeLiterature bool `json:"includeLiterature,omitempty"`

	// Base64 is the encoded pickle of a single surface.
	Base64 string `json:"base64,omitempty"`
}

// Build turns the description into a surface source.
func (s Source) Build() (surface.Source, error) {
	switch s.Kind {
	case "ngons":
		return &surface.Ngons{
			Vertices:          s.Vertices,
			Limit:             s.Limit,
			Count:             s.Count,
			IncludeLiterature: s.IncludeLiterature,
		}, nil
	case "pickle":
		return &surface.Pickled{Base64: s.Base64}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

// Goal selects one goal by its command token, with optional per-goal
// tuning.
type Goal struct {
	Kind       string `json:"kind"`
	Limit      int    `json:"limit,omitempty"`
	Expansions int    `json:"expansions,omitempty"`
}

// Reporter selects one reporter by its command token.
type Reporter struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
}

// CacheRef names a cache to consult before computing.
type CacheRef struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Budget limits the work spent per surface.
type Budget struct {
	// Steps is the pipeline step budget; 0 means unlimited.
	Steps int `json:"steps,omitempty"`

	// Timeout is a Go duration string; "" means no wall-clock limit.
	Timeout string `json:"timeout,omitempty"`
}

// Duration parses the wall-clock limit; a zero duration means none.
func (b Budget) Duration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, fmt.Errorf("budget timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("budget timeout must be positive, got %s", b.Timeout)
	}
	return d, nil
}
