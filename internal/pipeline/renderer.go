package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/veridraft/internal/model"
)

// Renderer writes run results as JSON and Markdown reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result bundle as indented JSON
func (r *Renderer) RenderJSON(result *model.RunResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(result *model.RunResult, path string) error {
	var b strings.Builder

	subject := result.Subject
	if subject == "" {
		subject = "Haystack run"
	}
	fmt.Fprintf(&b, "# %s\n\n", subject)
	fmt.Fprintf(&b, "- **Status**: %s\n", result.Status)
	if result.Audit.Coverage != nil {
		m := result.Audit.Coverage
		fmt.Fprintf(&b, "- **Coverage**: %d/%d (%.1f%%, threshold %.0f%%)\n",
			m.Valid, m.Total, m.Ratio*100, m.Threshold*100)
	}
	fmt.Fprintf(&b, "- **Revision cycles**: %d\n", result.Cycles)
	fmt.Fprintf(&b, "- **Evidence items**: %d\n", len(result.Evidence))
	if len(result.DegradedStages) > 0 {
		fmt.Fprintf(&b, "- **Degraded stages**: %s\n", strings.Join(result.DegradedStages, ", "))
	}
	b.WriteString("\n## Narrative\n\n")
	b.WriteString(result.Draft.Narrative)
	b.WriteString("\n")

	if unsupported := result.Draft.ClaimLedger.Unsupported(); len(unsupported) > 0 {
		b.WriteString("\n## Unsupported claims\n\n")
		for _, c := range unsupported {
			fmt.Fprintf(&b, "- %s\n", c.Text)
		}
	}

	if len(result.Evidence) > 0 {
		b.WriteString("\n## Evidence\n\n")
		b.WriteString("| ID | Score | Source | Content |\n|---|---|---|---|\n")
		for _, e := range result.Evidence {
			score := "-"
			if e.Score != nil {
				score = fmt.Sprintf("%.2f", *e.Score)
			}
			source := "-"
			if e.Provenance != nil {
				source = e.Provenance.Source
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.ID, score, source, truncate(e.Content, 80))
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n")
		b.WriteString("Generated by veridraft. Coverage measures citation support, not truth.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write Markdown report: %w", err)
	}
	return nil
}

// RenderSummary prints a short run summary to stdout
func (r *Renderer) RenderSummary(result *model.RunResult) {
	fmt.Printf("Status: %s\n", result.Status)
	if result.Audit.Coverage != nil {
		m := result.Audit.Coverage
		fmt.Printf("Coverage: %d/%d claims pinpointed (%.1f%% vs threshold %.0f%%)\n",
			m.Valid, m.Total, m.Ratio*100, m.Threshold*100)
	}
	fmt.Printf("Cycles: %d, evidence items: %d\n", result.Cycles, len(result.Evidence))
	if len(result.DegradedStages) > 0 {
		fmt.Printf("Degraded stages: %s\n", strings.Join(result.DegradedStages, ", "))
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
