package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Join merges cache documents into one. Entries under the same job kind
// are concatenated in input order; nothing is deduplicated, since entries
// are append-only and reduction happens at lookup time. A document's
// top-level surface is pushed down into its entries so the join loses no
// information.
func Join(inputs ...[]byte) ([]byte, error) {
	merged := make(map[string][]json.RawMessage)

	for i, input := range inputs {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(input, &doc); err != nil {
			return nil, fmt.Errorf("join input %d: %w", i, err)
		}

		surfaceRaw, shared := doc["surface"]

		for kind, raw := range doc {
			if kind == "surface" {
				continue
			}
			var entries []json.RawMessage
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, fmt.Errorf("join input %d, entries for %q: %w", i, kind, err)
			}
			for _, entry := range entries {
				if shared {
					pushed, err := pushDownSurface(entry, surfaceRaw)
					if err != nil {
						return nil, fmt.Errorf("join input %d, entries for %q: %w", i, kind, err)
					}
					entry = pushed
				}
				merged[kind] = append(merged[kind], entry)
			}
		}
	}

	kinds := make([]string, 0, len(merged))
	for kind := range merged {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var out bytes.Buffer
	out.WriteString("{")
	for i, kind := range kinds {
		if i > 0 {
			out.WriteString(",")
		}
		key, err := json.Marshal(kind)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteString(":")
		entries, err := json.Marshal(merged[kind])
		if err != nil {
			return nil, err
		}
		out.Write(entries)
	}
	out.WriteString("}")

	var indented bytes.Buffer
	if err := json.Indent(&indented, out.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return indented.Bytes(), nil
}

// pushDownSurface adds the shared surface to an entry that has none.
func pushDownSurface(entry, surfaceRaw json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["surface"]; ok {
		return entry, nil
	}
	fields["surface"] = surfaceRaw
	return json.Marshal(fields)
}
