package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/gate"
	"github.com/ppiankov/veridraft/internal/model"
)

const normalizeSystem = `You are the evidence manager. Normalize raw source material into discrete
evidence items. Every item gets a stable id, the normalized content, and a
provenance pointer (source, page, line) where one can be determined. Output a
JSON array of evidence items.`

// Normalize turns a raw haystack into normalized evidence items.
type Normalize struct {
	agent agent.Agent
}

// NewNormalize creates the Normalize stage
func NewNormalize(a agent.Agent) *Normalize {
	return &Normalize{agent: a}
}

// Run invokes the agent on the raw haystack and parses the response into
// evidence items. On malformed output it falls back to a single item
// wrapping the raw response verbatim, score unset.
func (s *Normalize) Run(ctx context.Context, raw string) ([]model.EvidenceItem, Outcome, error) {
	resp, err := s.agent.Invoke(ctx, agent.Request{
		Stage:       model.StageNormalize,
		System:      normalizeSystem,
		Inputs:      map[string]string{"raw_haystack": raw},
		OutputField: "normalized_evidence",
	})
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("normalize: %w", err)
	}

	items, outcome := parseEvidence(resp.Field("normalized_evidence"))
	finalizeEvidence(items)
	return items, outcome, nil
}

// parseEvidence parses a JSON evidence list, falling back to a single item
// wrapping the raw text. The fallback is deterministic: the same raw input
// always yields the identical artifact.
func parseEvidence(raw string) ([]model.EvidenceItem, Outcome) {
	var items []model.EvidenceItem
	if err := json.Unmarshal([]byte(stripFences(raw)), &items); err != nil {
		return []model.EvidenceItem{{Content: raw}}, degradedOutcome("invalid evidence list format")
	}
	return items, cleanOutcome()
}

// finalizeEvidence assigns missing identifiers and content hashes. IDs are
// positional and therefore stable for a given item order.
func finalizeEvidence(items []model.EvidenceItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("ev-%03d", i+1)
		}
		if items[i].ContentHash == "" {
			items[i].ContentHash = gate.ContentHash(items[i].Content)
		}
	}
}
