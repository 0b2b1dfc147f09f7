package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
)

const auditSystem = `You are the socratic critic. Attack the draft: for every claim in the
ledger, check whether its pinpoint resolves into the sentence map's evidence.
List unsupported claims and concrete revision guidance. Output a JSON audit
report with audit_status, unsupported_claims, and revision_guidance.`

// Audit critiques a draft's claim ledger against its trace map.
// The audit agent's self-reported coverage is informational only; the
// revision controller recomputes the gate independently.
type Audit struct {
	agent agent.Agent
}

// NewAudit creates the Audit stage
func NewAudit(a agent.Agent) *Audit {
	return &Audit{agent: a}
}

// Run invokes the agent on the ledger and sentence map and parses the
// report. On malformed output the report is forced to FAIL with an explicit
// note, so a broken critic can never pass a draft.
func (s *Audit) Run(ctx context.Context, ledger model.ClaimLedger, sentenceMap []model.SentenceRow) (model.AuditReport, Outcome, error) {
	resp, err := s.agent.Invoke(ctx, agent.Request{
		Stage:  model.StageAudit,
		System: auditSystem,
		Inputs: map[string]string{
			"claim_ledger": mustJSON(ledger),
			"sentence_map": mustJSON(sentenceMap),
		},
		OutputField: "audit_report",
	})
	if err != nil {
		return model.AuditReport{}, Outcome{}, fmt.Errorf("audit: %w", err)
	}

	report, outcome := parseAuditReport(resp.Field("audit_report"))
	return report, outcome, nil
}

// parseAuditReport parses an audit report, falling back to a forced FAIL.
func parseAuditReport(raw string) (model.AuditReport, Outcome) {
	var report model.AuditReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return model.AuditReport{
			Status: model.AuditFail,
			Note:   "invalid audit report format",
		}, degradedOutcome("invalid audit report format")
	}
	return report, cleanOutcome()
}
