package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ActiveSpec is the currently approved specification entry in the
// architecture ledger.
type ActiveSpec struct {
	Name       string    `json:"name,omitempty"`
	SpecHash   string    `json:"spec_hash"`
	ApprovedAt time.Time `json:"approved_at,omitempty"`
}

// Decision is one recorded architectural decision.
type Decision struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	SpecHash   string    `json:"spec_hash,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// ArchitectureLedger is the external record of approved specifications and
// their content hashes. This core only ever reads it.
type ArchitectureLedger struct {
	ActiveSpec *ActiveSpec `json:"active_spec,omitempty"`
	Decisions  []Decision  `json:"decisions,omitempty"`
}

// LoadArchitectureLedger reads a ledger from a JSON file.
func LoadArchitectureLedger(path string) (*ArchitectureLedger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var ledger ArchitectureLedger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}

	return &ledger, nil
}
