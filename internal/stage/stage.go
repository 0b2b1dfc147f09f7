// Package stage wraps each pipeline stage around one agent invocation and
// parses the raw response into its artifact schema. Parsing never fails the
// pipeline: a malformed response is replaced by a minimal valid fallback
// artifact, and the degradation is reported through an Outcome value so
// callers can tell a clean parse from a degraded one without exceptions.
package stage

import (
	"encoding/json"
	"strings"
)

// Outcome reports how a stage response was parsed.
type Outcome struct {
	// Degraded is true when structural parsing failed and the artifact is
	// a fallback. The artifact is still well-typed; treat this as a soft
	// failure.
	Degraded bool

	// Note explains the degradation, empty on a clean parse.
	Note string
}

func cleanOutcome() Outcome {
	return Outcome{}
}

func degradedOutcome(note string) Outcome {
	return Outcome{Degraded: true, Note: note}
}

// mustJSON serializes a value for an agent input field. Artifacts are plain
// data with json tags, so marshaling cannot fail at runtime.
func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// stripFences removes a surrounding markdown code fence, which models often
// wrap JSON payloads in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
