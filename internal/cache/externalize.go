package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultPickleThreshold is the embedded pickle size above which
// externalization moves the blob into a side file.
const DefaultPickleThreshold = 128

// ExternalizePickles rewrites a cache document, moving every embedded
// "pickle" value longer than threshold into a gzip side file under dir
// and replacing it with the file's digest. Returns the rewritten
// document and the number of pickles moved.
func ExternalizePickles(doc []byte, dir string, threshold int) ([]byte, int, error) {
	if threshold <= 0 {
		threshold = DefaultPickleThreshold
	}

	var tree any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return nil, 0, fmt.Errorf("externalize: %w", err)
	}

	moved := 0
	var walk func(node any) error
	walk = func(node any) error {
		switch n := node.(type) {
		case map[string]any:
			if value, ok := n["pickle"].(string); ok && len(value) > threshold {
				blob, err := base64.StdEncoding.DecodeString(value)
				if err != nil {
					return fmt.Errorf("externalize: embedded pickle is not base64: %w", err)
				}
				digest, err := writePickle(dir, blob)
				if err != nil {
					return err
				}
				n["pickle"] = digest
				moved++
			}
			for _, value := range n {
				if err := walk(value); err != nil {
					return err
				}
			}
		case []any:
			for _, value := range n {
				if err := walk(value); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(tree); err != nil {
		return nil, 0, err
	}

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, 0, err
	}
	return out, moved, nil
}

// InflatePickles reverses ExternalizePickles: every "pickle" value the
// providers recognize as a digest is replaced by the embedded base64
// blob. Values the providers do not know are left alone; they are either
// still embedded or stored elsewhere.
func InflatePickles(doc []byte, pickles *Pickles) ([]byte, int, error) {
	var tree any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return nil, 0, fmt.Errorf("inflate: %w", err)
	}

	inflated := 0
	var walk func(node any)
	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			if digest, ok := n["pickle"].(string); ok {
				if blob, err := pickles.Unpickle(digest); err == nil {
					n["pickle"] = base64.StdEncoding.EncodeToString(blob)
					inflated++
				}
			}
			for _, value := range n {
				walk(value)
			}
		case []any:
			for _, value := range n {
				walk(value)
			}
		}
	}
	walk(tree)

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, 0, err
	}
	return out, inflated, nil
}
