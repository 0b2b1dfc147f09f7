// Package revise implements the bounded draft/audit retry loop as an
// explicit state machine. Each cycle produces an immutable record appended
// to the run history; nothing is mutated in place across cycles.
package revise

import (
	"context"
	"fmt"

	"github.com/ppiankov/veridraft/internal/gate"
	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/stage"
)

// State is a revision controller state
type State string

const (
	StateDrafted   State = "DRAFTED"   // A draft exists and awaits audit
	StateAudited   State = "AUDITED"   // The audit for the current draft completed
	StateAccepted  State = "ACCEPTED"  // Coverage gate passed; terminal
	StateRevising  State = "REVISING"  // Gate failed with budget remaining
	StateExhausted State = "EXHAUSTED" // Gate failed and budget spent; terminal
)

// CycleRecord captures one completed draft/audit cycle.
type CycleRecord struct {
	Cycle         int
	Draft         model.DraftArtifact
	Audit         model.AuditReport
	Metric        model.CoverageMetric
	State         State // state after this cycle's gate evaluation
	DraftDegraded bool
	AuditDegraded bool
}

// Result is the controller's terminal output. Exhaustion is a fully formed
// FAIL result, never an error: partial work is always returned.
type Result struct {
	Draft   model.DraftArtifact
	Audit   model.AuditReport
	State   State
	Cycles  int // draft invocations performed
	History []CycleRecord
}

// Controller runs the bounded revision loop. Stages execute strictly
// sequentially: the audit for cycle N starts only after its draft completes,
// and cycle N+1 starts only after cycle N's audit completes, since the
// revision context depends on it.
type Controller struct {
	drafter   *stage.Draft
	auditor   *stage.Audit
	maxCycles int
	threshold float64
}

// NewController validates the gate configuration up front: a bad threshold
// or a non-positive cycle budget fails here, before any agent is invoked.
func NewController(drafter *stage.Draft, auditor *stage.Audit, maxCycles int, threshold float64) (*Controller, error) {
	if maxCycles < 1 {
		return nil, fmt.Errorf("max revision cycles must be >= 1, got %d", maxCycles)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %g", gate.ErrThresholdRange, threshold)
	}
	return &Controller{
		drafter:   drafter,
		auditor:   auditor,
		maxCycles: maxCycles,
		threshold: threshold,
	}, nil
}

// Run drives the loop to acceptance or exhaustion. The coverage gate is
// recomputed from the draft's own claim ledger every cycle; the audit
// agent's self-reported status is never trusted for the gate decision.
func (c *Controller) Run(ctx context.Context, evidence []model.EvidenceItem) (*Result, error) {
	var history []CycleRecord

	req := stage.DraftRequest{Evidence: evidence}

	for cycle := 0; cycle < c.maxCycles; cycle++ {
		draft, draftOutcome, err := c.drafter.Run(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", cycle, err)
		}

		report, auditOutcome, err := c.auditor.Run(ctx, draft.ClaimLedger, draft.SentenceMap)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", cycle, err)
		}

		// Independent gate evaluation over the same ledger the audit saw.
		metric, err := gate.ComputeCoverage(draft.ClaimLedger, c.threshold)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", cycle, err)
		}

		record := CycleRecord{
			Cycle:         cycle,
			Draft:         draft,
			Metric:        metric,
			DraftDegraded: draftOutcome.Degraded,
			AuditDegraded: auditOutcome.Degraded,
		}

		if metric.Passes() {
			report.Status = model.AuditPass
			report.Coverage = &metric
			record.Audit = report
			record.State = StateAccepted
			history = append(history, record)

			return &Result{
				Draft:   draft,
				Audit:   report,
				State:   StateAccepted,
				Cycles:  cycle + 1,
				History: history,
			}, nil
		}

		report.Status = model.AuditFail
		report.Coverage = &metric
		if len(report.UnsupportedClaims) == 0 {
			report.UnsupportedClaims = draft.ClaimLedger.Unsupported()
		}
		record.Audit = report

		if cycle == c.maxCycles-1 {
			record.State = StateExhausted
			history = append(history, record)

			return &Result{
				Draft:   draft,
				Audit:   report,
				State:   StateExhausted,
				Cycles:  cycle + 1,
				History: history,
			}, nil
		}

		record.State = StateRevising
		history = append(history, record)

		// Next cycle drafts against this cycle's audit output.
		prev := draft
		req = stage.DraftRequest{
			Evidence:    evidence,
			Previous:    &prev,
			Guidance:    report.RevisionGuidance,
			Unsupported: report.UnsupportedClaims,
		}
	}

	// Unreachable: the loop always returns from its final cycle.
	return nil, fmt.Errorf("revision loop ended without a terminal state")
}
