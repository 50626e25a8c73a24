package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/surface"
)

// SurfaceRef is a possibly unmaterialized surface inside a cache entry.
//
// Refs carry the surface description as a summary field so that lookups
// can filter entries without unpickling anything; the actual surface is
// only materialized by Resolve. The pickle is embedded as base64, or
// replaced by its digest when it has been externalized into a side file.
type SurfaceRef struct {
	// Description is the surface's stable description, e.g.
	// "Ngon([1, 1, 1])".
	Description string

	// Pickle is the base64 encoded pickle blob, or the digest of an
	// externalized pickle.
	Pickle string

	pickles  *Pickles
	resolved surface.Surface
}

// NewSurfaceRef builds a materialized ref for s.
func NewSurfaceRef(s surface.Surface) (*SurfaceRef, error) {
	blob, err := surface.Pickle(s)
	if err != nil {
		return nil, err
	}
	return &SurfaceRef{
		Description: s.Describe(),
		Pickle:      base64.StdEncoding.EncodeToString(blob),
		resolved:    s,
	}, nil
}

// Attach provides the pickle side-file lookup used to resolve
// externalized refs.
func (r *SurfaceRef) Attach(p *Pickles) { r.pickles = p }

// Matches reports whether the ref describes s. It never materializes the
// surface.
func (r *SurfaceRef) Matches(s surface.Surface) bool {
	return r.Description == s.Describe()
}

// Resolve materializes the referenced surface. The first call unpickles;
// later calls return the same surface.
func (r *SurfaceRef) Resolve() (surface.Surface, error) {
	if r.resolved != nil {
		return r.resolved, nil
	}
	if r.Pickle == "" {
		return nil, fmt.Errorf("surface ref %q has no pickle", r.Description)
	}

	blob, err := base64.StdEncoding.DecodeString(r.Pickle)
	if err == nil {
		if s, uerr := surface.Unpickle(blob); uerr == nil {
			r.resolved = s
			return s, nil
		}
	}

	// Not an embedded pickle, so it must be the digest of an
	// externalized one.
	if r.pickles == nil {
		return nil, fmt.Errorf("surface ref %q is externalized as %s but no pickle providers are attached", r.Description, r.Pickle)
	}
	blob, err = r.pickles.Unpickle(r.Pickle)
	if err != nil {
		return nil, fmt.Errorf("surface ref %q: %w", r.Description, err)
	}
	s, err := surface.Unpickle(blob)
	if err != nil {
		return nil, fmt.Errorf("surface ref %q: %w", r.Description, err)
	}
	r.resolved = s
	return s, nil
}

func (r *SurfaceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"description": r.Description,
		"pickle":      r.Pickle,
	})
}

func (r *SurfaceRef) UnmarshalJSON(data []byte) error {
	var doc struct {
		Description string `json:"description"`
		Pickle      string `json:"pickle"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("surface ref: %w", err)
	}
	r.Description = doc.Description
	r.Pickle = doc.Pickle
	return nil
}
