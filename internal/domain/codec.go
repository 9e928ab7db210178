package domain

import (
	"encoding/json"
	"fmt"
)

// Marshal serializes the aggregate to its persisted JSON form. The
// output is indented so filesystem documents stay human-inspectable.
func Marshal(m *CandidateMemory) ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate memory %s: %w", m.CandidateID, err)
	}
	return b, nil
}

// Unmarshal decodes a persisted document and validates its structure.
// Documents from an incompatible schema version are rejected.
func Unmarshal(b []byte) (*CandidateMemory, error) {
	var m CandidateMemory
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal candidate memory: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate memory document: %w", err)
	}
	return &m, nil
}
