package model

import "time"

// AuditStatus is the binary outcome of an audit
type AuditStatus string

const (
	AuditPass AuditStatus = "PASS"
	AuditFail AuditStatus = "FAIL"
)

// CoverageMetric is the claim-citation coverage record for one audit.
// Invariant: 0 <= Valid <= Total and 0.0 <= Ratio <= 1.0.
type CoverageMetric struct {
	Valid     int     `json:"V"`         // Factual claims with a valid pinpoint
	Total     int     `json:"U"`         // Total factual claims
	Ratio     float64 `json:"ratio"`     // Valid/Total, 0.0 when Total == 0
	Threshold float64 `json:"threshold"` // Threshold in force for this run
}

// Passes reports whether the coverage ratio clears the threshold
func (m CoverageMetric) Passes() bool {
	return m.Ratio >= m.Threshold
}

// AuditReport is the output of one Audit stage invocation. Each revision
// cycle produces a fresh report; a new report supersedes, never merges with,
// the previous one.
type AuditReport struct {
	Status            AuditStatus     `json:"audit_status"`
	Coverage          *CoverageMetric `json:"coverage_metric,omitempty"`
	RevisionGuidance  []string        `json:"revision_guidance,omitempty"`
	UnsupportedClaims []Claim         `json:"unsupported_claims,omitempty"`
	Note              string          `json:"note,omitempty"` // Set when the report is a parse fallback
}

// RunResult is the complete artifact bundle returned by one pipeline run.
// It is always fully formed: a FAIL status carries the final draft, the
// final audit report, and the per-cycle history so partial work is never
// discarded.
type RunResult struct {
	Subject   string    `json:"subject,omitempty"` // Caller-supplied label for the run
	StartedAt time.Time `json:"started_at"`

	Evidence []EvidenceItem `json:"evidence"`
	Draft    DraftArtifact  `json:"draft"`
	Audit    AuditReport    `json:"audit_report"`

	Status AuditStatus `json:"status"`
	Cycles int         `json:"cycles"` // Draft invocations performed

	// History holds every cycle's superseded audit report, oldest first.
	History []AuditReport `json:"history,omitempty"`

	// DegradedStages lists stages whose output failed structural parsing and
	// was replaced by a fallback artifact. Soft failures only; the bundle is
	// still well-typed.
	DegradedStages []string `json:"degraded_stages,omitempty"`
}
