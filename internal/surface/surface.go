// Package surface describes the flat translation surfaces under
// investigation and the sources that enumerate them.
//
// Surfaces are immutable once constructed. Their stable description and
// characteristics feed the cache fingerprint, so anything that changes in
// either invalidates previously cached results for that surface.
package surface

import (
	"encoding/json"
	"fmt"

	"github.com/flatsurf/flatsurvey/internal/canonical"
)

// Surface is an opaque geometric object with a stable identity.
type Surface interface {
	// Name is a short filesystem-friendly name, e.g. "ngon-1-1-1".
	// Derived output files (JSON, YAML, logs) are named after it.
	Name() string

	// Describe returns the stable human-readable description used in
	// logs and as the surface filter of store queries, e.g.
	// "Ngon([1, 1, 1])".
	Describe() string

	// Characteristics returns the structural description that is
	// embedded in cache entries, e.g. {"type": "Ngon", "angles": [1,1,1]}.
	// The returned map must only contain canonical-JSON-safe values.
	Characteristics() map[string]any

	// Reference names the literature where this surface has been
	// studied before, or returns "" if it is unknown territory.
	Reference() string

	// OrbitClosureDimensionUpperBound is the ambient dimension of the
	// stratum; the orbit closure is dense once its dimension reaches it.
	OrbitClosureDimensionUpperBound() int
}

// Fingerprint returns the content-addressed identity of s, the cache key
// component for this surface.
func Fingerprint(s Surface) (string, error) {
	id, err := canonical.HashValue(canonical.DomainSurface, s.Characteristics())
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", s.Describe(), err)
	}
	return id, nil
}

// Pickle serializes s into the blob that cache side files and the results
// store carry. The blob is canonical so its digest is reproducible.
func Pickle(s Surface) ([]byte, error) {
	data, err := canonical.MarshalCanonical(s.Characteristics())
	if err != nil {
		return nil, fmt.Errorf("pickle %s: %w", s.Describe(), err)
	}
	return data, nil
}

// PickleDigest returns the digest under which Pickle(s) is stored.
func PickleDigest(s Surface) (string, error) {
	data, err := Pickle(s)
	if err != nil {
		return "", err
	}
	return canonical.Hash(canonical.DomainPickle, data), nil
}

// Unpickle reconstructs a surface from a pickle blob. The "type" field of
// the characteristics selects the concrete type.
func Unpickle(data []byte) (Surface, error) {
	var raw struct {
		Type   string `json:"type"`
		Angles []int  `json:"angles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}

	switch raw.Type {
	case "Ngon":
		return NewNgon(raw.Angles)
	default:
		return nil, fmt.Errorf("unpickle: unknown surface type %q", raw.Type)
	}
}
