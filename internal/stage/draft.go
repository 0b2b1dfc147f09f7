package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
)

const draftSystem = `You are the structural drafter. Synthesize a narrative from the given
evidence. Emit a sentence map linking every sentence to the evidence ids that
support it, and a claim ledger of every atomic assertion with its type and
pinpoint. Do not state claims without an evidence pinpoint. Output a JSON
object with narrative, sentence_map, and claim_ledger.`

// DraftRequest is the context for one Draft invocation. The first cycle
// carries only the ranked evidence; revision cycles add the previous draft
// and the audit's guidance.
type DraftRequest struct {
	Evidence    []model.EvidenceItem
	Previous    *model.DraftArtifact // nil on the first cycle
	Guidance    []string             // audit revision guidance
	Unsupported []model.Claim        // claims the audit flagged
}

// Draft generates the narrative artifact from ranked evidence.
type Draft struct {
	agent agent.Agent
}

// NewDraft creates the Draft stage
func NewDraft(a agent.Agent) *Draft {
	return &Draft{agent: a}
}

// Run invokes the agent with the drafting context and parses the artifact.
// On malformed output it falls back to an artifact holding the raw response
// as narrative with an empty sentence map and claim ledger.
func (s *Draft) Run(ctx context.Context, req DraftRequest) (model.DraftArtifact, Outcome, error) {
	inputs := map[string]string{
		"evidence": mustJSON(req.Evidence),
		"mandate":  "All claims must have evidence pinpoints",
	}
	if req.Previous != nil {
		inputs["previous_draft"] = mustJSON(req.Previous)
		inputs["audit_feedback"] = mustJSON(req.Guidance)
		inputs["unsupported_claims"] = mustJSON(req.Unsupported)
	}

	resp, err := s.agent.Invoke(ctx, agent.Request{
		Stage:       model.StageDraft,
		System:      draftSystem,
		Inputs:      inputs,
		OutputField: "draft_narrative",
	})
	if err != nil {
		return model.DraftArtifact{}, Outcome{}, fmt.Errorf("draft: %w", err)
	}

	artifact, outcome := parseDraft(resp.Field("draft_narrative"))
	return artifact, outcome, nil
}

// parseDraft parses a draft artifact, falling back to raw text as narrative.
func parseDraft(raw string) (model.DraftArtifact, Outcome) {
	var artifact model.DraftArtifact
	if err := json.Unmarshal([]byte(stripFences(raw)), &artifact); err != nil {
		return model.DraftArtifact{
			Narrative:   raw,
			SentenceMap: []model.SentenceRow{},
			ClaimLedger: model.ClaimLedger{Claims: []model.Claim{}},
		}, degradedOutcome("invalid draft format")
	}

	if artifact.SentenceMap == nil {
		artifact.SentenceMap = []model.SentenceRow{}
	}
	if artifact.ClaimLedger.Claims == nil {
		artifact.ClaimLedger.Claims = []model.Claim{}
	}
	return artifact, cleanOutcome()
}
