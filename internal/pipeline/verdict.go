package pipeline

import (
	"bytes"
	"fmt"
)

// Verdict is the tri-state outcome of a goal or cached result.
//
// Undetermined is the zero value on purpose: a goal that has not gathered
// evidence yet must never read as a boolean default. Verdicts serialize to
// JSON null/true/false to stay compatible with the cache file format.
type Verdict int

const (
	// Undetermined means no conclusive evidence either way.
	Undetermined Verdict = iota
	// VerdictTrue is a positive resolution.
	VerdictTrue
	// VerdictFalse is a negative resolution.
	VerdictFalse
)

func (v Verdict) String() string {
	switch v {
	case VerdictTrue:
		return "true"
	case VerdictFalse:
		return "false"
	default:
		return "undetermined"
	}
}

// Resolved reports whether the verdict carries evidence.
func (v Verdict) Resolved() bool {
	return v != Undetermined
}

// MarshalJSON writes null for Undetermined, matching the cache files
// produced by earlier survey runs.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictTrue:
		return []byte("true"), nil
	case VerdictFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Undetermined
	case bytes.Equal(data, []byte("true")):
		*v = VerdictTrue
	case bytes.Equal(data, []byte("false")):
		*v = VerdictFalse
	default:
		return fmt.Errorf("invalid verdict %q", data)
	}
	return nil
}
