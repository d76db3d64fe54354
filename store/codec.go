package store

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes a snapshot as the indented JSON document used by every
// backend and by export.
func Marshal(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot document and normalizes its collections.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// MissingKeys returns the required top-level keys absent from a document.
func MissingKeys(data []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := top[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing, nil
}
