package revise

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/gate"
	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/stage"
)

// draftJSON builds a structured draft response with the given supported and
// unsupported factual claim counts
func draftJSON(t *testing.T, supported, unsupported int) string {
	t.Helper()
	var claims []model.Claim
	for i := 0; i < supported; i++ {
		claims = append(claims, model.Claim{
			Text:             "supported",
			Type:             model.ClaimTypeFactual,
			HasValidPinpoint: true,
			Pinpoint:         "doc.md:1:1",
		})
	}
	for i := 0; i < unsupported; i++ {
		claims = append(claims, model.Claim{
			Text: "unsupported",
			Type: model.ClaimTypeFactual,
		})
	}
	artifact := model.DraftArtifact{
		Narrative:   "draft narrative",
		SentenceMap: []model.SentenceRow{},
		ClaimLedger: model.ClaimLedger{Claims: claims},
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// sequenceAgent returns scripted responses in order, repeating the last one.
// It also records every request it sees.
func sequenceAgent(responses []string, log *[]agent.Request) agent.Agent {
	i := 0
	return agent.Func(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		if log != nil {
			*log = append(*log, req)
		}
		resp := responses[len(responses)-1]
		if i < len(responses) {
			resp = responses[i]
			i++
		}
		return agent.Response{Outputs: map[string]string{req.OutputField: resp}}, nil
	})
}

const failAudit = `{"audit_status": "FAIL", "revision_guidance": ["add pinpoints"]}`
const passAudit = `{"audit_status": "PASS"}`

func newTestController(t *testing.T, drafter, auditor agent.Agent, maxCycles int, threshold float64) *Controller {
	t.Helper()
	c, err := NewController(stage.NewDraft(drafter), stage.NewAudit(auditor), maxCycles, threshold)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

func TestNewController_Validation(t *testing.T) {
	drafter := stage.NewDraft(nil)
	auditor := stage.NewAudit(nil)

	if _, err := NewController(drafter, auditor, 0, 0.95); err == nil {
		t.Error("expected error for zero cycle budget")
	}
	if _, err := NewController(drafter, auditor, -1, 0.95); err == nil {
		t.Error("expected error for negative cycle budget")
	}

	_, err := NewController(drafter, auditor, 3, 1.5)
	if !errors.Is(err, gate.ErrThresholdRange) {
		t.Errorf("expected ErrThresholdRange, got %v", err)
	}

	if _, err := NewController(drafter, auditor, 1, 0); err != nil {
		t.Errorf("expected threshold 0 to be valid, got %v", err)
	}
}

func TestController_AcceptsFirstCycle(t *testing.T) {
	// 19/20 supported = 0.95, meets the threshold on cycle one.
	drafter := sequenceAgent([]string{draftJSON(t, 19, 1)}, nil)
	auditor := sequenceAgent([]string{failAudit}, nil)

	ctrl := newTestController(t, drafter, auditor, 3, 0.95)
	result, err := ctrl.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != StateAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.State)
	}
	if result.Cycles != 1 {
		t.Errorf("expected 1 cycle, got %d", result.Cycles)
	}
	// The gate decision overrides the audit agent's self-reported FAIL.
	if result.Audit.Status != model.AuditPass {
		t.Errorf("expected gate to force PASS, got %s", result.Audit.Status)
	}
	if result.Audit.Coverage == nil || result.Audit.Coverage.Ratio != 0.95 {
		t.Errorf("expected coverage 0.95 attached, got %+v", result.Audit.Coverage)
	}
	if len(result.History) != 1 || result.History[0].State != StateAccepted {
		t.Errorf("unexpected history: %+v", result.History)
	}
}

func TestController_GateOverridesAuditPass(t *testing.T) {
	// 8/10 = 0.80 fails a 0.95 gate even though the critic reported PASS.
	drafter := sequenceAgent([]string{draftJSON(t, 8, 2)}, nil)
	auditor := sequenceAgent([]string{passAudit}, nil)

	ctrl := newTestController(t, drafter, auditor, 1, 0.95)
	result, err := ctrl.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != StateExhausted {
		t.Errorf("expected EXHAUSTED, got %s", result.State)
	}
	if result.Audit.Status != model.AuditFail {
		t.Errorf("expected gate to force FAIL, got %s", result.Audit.Status)
	}
	if len(result.Audit.UnsupportedClaims) != 2 {
		t.Errorf("expected 2 unsupported claims from the ledger, got %d", len(result.Audit.UnsupportedClaims))
	}
}

func TestController_SingleCycleBudget(t *testing.T) {
	// maxCycles = 1: exactly one draft and one audit, no revision context.
	var draftReqs, auditReqs []agent.Request
	drafter := sequenceAgent([]string{draftJSON(t, 0, 1)}, &draftReqs)
	auditor := sequenceAgent([]string{failAudit}, &auditReqs)

	ctrl := newTestController(t, drafter, auditor, 1, 0.95)
	result, err := ctrl.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != StateExhausted {
		t.Errorf("expected EXHAUSTED, got %s", result.State)
	}
	if len(draftReqs) != 1 {
		t.Errorf("expected exactly 1 draft invocation, got %d", len(draftReqs))
	}
	if len(auditReqs) != 1 {
		t.Errorf("expected exactly 1 audit invocation, got %d", len(auditReqs))
	}
	if _, ok := draftReqs[0].Inputs["previous_draft"]; ok {
		t.Error("single-cycle draft must not carry revision context")
	}
}

func TestController_ReviseThenAccept(t *testing.T) {
	var draftReqs []agent.Request
	drafter := sequenceAgent([]string{
		draftJSON(t, 1, 1), // 0.50, fails
		draftJSON(t, 2, 0), // 1.00, passes
	}, &draftReqs)
	auditor := sequenceAgent([]string{failAudit}, nil)

	ctrl := newTestController(t, drafter, auditor, 3, 0.95)
	result, err := ctrl.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != StateAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.State)
	}
	if result.Cycles != 2 {
		t.Errorf("expected 2 cycles, got %d", result.Cycles)
	}

	if len(result.History) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(result.History))
	}
	if result.History[0].State != StateRevising {
		t.Errorf("expected first cycle REVISING, got %s", result.History[0].State)
	}
	if result.History[1].State != StateAccepted {
		t.Errorf("expected second cycle ACCEPTED, got %s", result.History[1].State)
	}

	// The revision draft must carry the previous draft and the guidance.
	if len(draftReqs) != 2 {
		t.Fatalf("expected 2 draft invocations, got %d", len(draftReqs))
	}
	second := draftReqs[1]
	if !strings.Contains(second.Inputs["previous_draft"], "draft narrative") {
		t.Error("expected revision draft to carry the previous draft")
	}
	if !strings.Contains(second.Inputs["audit_feedback"], "add pinpoints") {
		t.Error("expected revision draft to carry the audit guidance")
	}
	if !strings.Contains(second.Inputs["unsupported_claims"], "unsupported") {
		t.Error("expected revision draft to carry the flagged claims")
	}
}

func TestController_ExhaustionReturnsFullResult(t *testing.T) {
	// Every cycle fails; exhaustion is a result, not an error.
	drafter := sequenceAgent([]string{draftJSON(t, 0, 2)}, nil)
	auditor := sequenceAgent([]string{failAudit}, nil)

	ctrl := newTestController(t, drafter, auditor, 3, 0.95)
	result, err := ctrl.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error on exhaustion, got %v", err)
	}

	if result.State != StateExhausted {
		t.Errorf("expected EXHAUSTED, got %s", result.State)
	}
	if result.Cycles != 3 {
		t.Errorf("expected 3 cycles, got %d", result.Cycles)
	}
	if len(result.History) != 3 {
		t.Fatalf("expected 3 history records, got %d", len(result.History))
	}
	for i, rec := range result.History[:2] {
		if rec.State != StateRevising {
			t.Errorf("cycle %d: expected REVISING, got %s", i, rec.State)
		}
	}
	if result.Draft.Narrative == "" {
		t.Error("expected final draft attached to the exhausted result")
	}
	if result.Audit.Coverage == nil {
		t.Error("expected coverage metric attached to the final report")
	}
}

func TestController_StageOrdering(t *testing.T) {
	// The audit for cycle N runs after its draft, and the next draft runs
	// after that audit.
	var order []string
	drafter := agent.Func(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		order = append(order, "draft")
		return agent.Response{Outputs: map[string]string{req.OutputField: draftJSON(t, 0, 1)}}, nil
	})
	auditor := agent.Func(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		order = append(order, "audit")
		return agent.Response{Outputs: map[string]string{req.OutputField: failAudit}}, nil
	})

	ctrl := newTestController(t, drafter, auditor, 2, 0.95)
	if _, err := ctrl.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"draft", "audit", "draft", "audit"}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("invocation %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestController_DraftErrorAborts(t *testing.T) {
	boom := errors.New("provider down")
	drafter := agent.Func(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		return agent.Response{}, boom
	})
	auditor := sequenceAgent([]string{failAudit}, nil)

	ctrl := newTestController(t, drafter, auditor, 3, 0.95)
	_, err := ctrl.Run(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}
