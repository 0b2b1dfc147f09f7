package stage

import (
	"context"
	"fmt"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
)

const rankSystem = `You are the context gardener. Rank the given evidence items by
signal-to-noise, assign each a quality score in [0, 1], and drop redundant or
low-quality items. Keep every surviving item's id unchanged. Output a JSON
array of evidence items.`

// Rank scores and filters normalized evidence.
type Rank struct {
	agent agent.Agent
}

// NewRank creates the Rank stage
func NewRank(a agent.Agent) *Rank {
	return &Rank{agent: a}
}

// Run invokes the agent on the evidence list and parses the ranked result.
// Identity is preserved: a ranked item keeps the content, hash, and
// provenance of the input item with the same id; the agent only contributes
// score and ordering. Items the agent invents are discarded.
func (s *Rank) Run(ctx context.Context, items []model.EvidenceItem) ([]model.EvidenceItem, Outcome, error) {
	resp, err := s.agent.Invoke(ctx, agent.Request{
		Stage:       model.StageRank,
		System:      rankSystem,
		Inputs:      map[string]string{"raw_evidence_items": mustJSON(items)},
		OutputField: "ranked_evidence",
	})
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("rank: %w", err)
	}

	ranked, outcome := parseEvidence(resp.Field("ranked_evidence"))
	if outcome.Degraded {
		finalizeEvidence(ranked)
		return ranked, outcome, nil
	}

	return reconcileRanked(items, ranked), outcome, nil
}

// reconcileRanked maps the agent's ranking back onto the original items so
// re-ranking never mutates or replaces an evidence identity.
func reconcileRanked(original, ranked []model.EvidenceItem) []model.EvidenceItem {
	byID := make(map[string]model.EvidenceItem, len(original))
	for _, item := range original {
		byID[item.ID] = item
	}

	var out []model.EvidenceItem
	for _, r := range ranked {
		item, ok := byID[r.ID]
		if !ok {
			continue // not an item we produced
		}
		item.Score = r.Score
		out = append(out, item)
	}

	// An agent that filtered everything leaves the draft with nothing to
	// cite; fall back to the unranked input instead.
	if len(out) == 0 {
		return original
	}
	return out
}
