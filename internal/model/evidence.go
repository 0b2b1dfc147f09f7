package model

// SchemaVersionEvidence identifies the evidence item schema in serialized artifacts
const SchemaVersionEvidence = "evidence.v1"

// Provenance is a source locator pointing back into the original material
type Provenance struct {
	Source string `json:"source"`         // Document or file identifier
	Page   int    `json:"page,omitempty"` // Page within the source (1-based)
	Line   int    `json:"line,omitempty"` // Line within the page (1-based)
}

// EvidenceItem is one normalized unit of source material.
// Items are never mutated after creation: re-ranking assigns a new Score
// on the same identity, it does not produce a new item.
type EvidenceItem struct {
	ID          string      `json:"id"`                   // Stable identifier, unique within a run
	ContentHash string      `json:"content_hash"`         // SHA-256 of the normalized content
	Content     string      `json:"content"`              // Normalized free text
	Score       *float64    `json:"score,omitempty"`      // Quality/rank score from the Rank stage (unset until ranked)
	Provenance  *Provenance `json:"provenance,omitempty"` // Where in the source this came from
}

// EvidenceIDs returns the identifiers of the given items in order
func EvidenceIDs(items []EvidenceItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
