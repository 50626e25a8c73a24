package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalData converts an entry's data fields to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled so stored rows match the
// cache file serialization byte for byte.
func marshalData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalData parses JSON TEXT back into an entry's data fields.
func unmarshalData(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return fields, nil
}
