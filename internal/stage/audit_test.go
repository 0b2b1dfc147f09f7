package stage

import (
	"context"
	"testing"

	"github.com/ppiankov/veridraft/internal/model"
)

func TestAudit_CleanParse(t *testing.T) {
	response := `{
		"audit_status": "FAIL",
		"unsupported_claims": [{"text": "The quota is 30 days", "claim_type": "factual"}],
		"revision_guidance": ["add a pinpoint for the quota claim"]
	}`

	ledger := model.ClaimLedger{Claims: []model.Claim{
		{Text: "The quota is 30 days", Type: model.ClaimTypeFactual},
	}}

	report, outcome, err := NewAudit(scriptedAgent(response)).Run(context.Background(), ledger, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Degraded {
		t.Fatalf("expected clean parse, got degraded: %s", outcome.Note)
	}

	if report.Status != model.AuditFail {
		t.Errorf("expected FAIL, got %s", report.Status)
	}
	if len(report.UnsupportedClaims) != 1 {
		t.Errorf("expected 1 unsupported claim, got %d", len(report.UnsupportedClaims))
	}
	if len(report.RevisionGuidance) != 1 {
		t.Errorf("expected 1 guidance entry, got %d", len(report.RevisionGuidance))
	}
}

func TestAudit_MalformedOutputForcesFail(t *testing.T) {
	// A critic that cannot produce a structured report can never pass a draft.
	report, outcome, err := NewAudit(scriptedAgent("looks fine to me")).Run(context.Background(), model.ClaimLedger{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Degraded {
		t.Fatal("expected degraded outcome")
	}
	if report.Status != model.AuditFail {
		t.Errorf("expected forced FAIL, got %s", report.Status)
	}
	if report.Note != "invalid audit report format" {
		t.Errorf("unexpected note: %s", report.Note)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  ```json\n[1, 2]\n```  ", "[1, 2]"},
	}

	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
