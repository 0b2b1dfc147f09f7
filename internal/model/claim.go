package model

// ClaimType categorizes the nature of a claim
type ClaimType string

const (
	ClaimTypeFactual    ClaimType = "factual"    // Verifiable factual assertion
	ClaimTypeOpinion    ClaimType = "opinion"    // Judgement or interpretation
	ClaimTypeProcedural ClaimType = "procedural" // Describes process, not fact
)

// Claim represents one atomic assertion extracted from a draft
type Claim struct {
	Text             string    `json:"text"`               // The claim text itself
	Type             ClaimType `json:"claim_type"`         // factual, opinion, procedural
	HasValidPinpoint bool      `json:"has_valid_pinpoint"` // Whether a resolvable source pointer exists
	Pinpoint         string    `json:"pinpoint,omitempty"` // source:page:line locator, if any
	Sentence         int       `json:"sentence,omitempty"` // Sentence index in the narrative (0-based)
}

// ClaimLedger is the ordered collection of claims for one draft revision
type ClaimLedger struct {
	Claims []Claim `json:"claims"`
}

// Factual returns the factual subset of the ledger, preserving order
func (l ClaimLedger) Factual() []Claim {
	var out []Claim
	for _, c := range l.Claims {
		if c.Type == ClaimTypeFactual {
			out = append(out, c)
		}
	}
	return out
}

// Unsupported returns factual claims lacking a valid pinpoint, preserving order
func (l ClaimLedger) Unsupported() []Claim {
	var out []Claim
	for _, c := range l.Claims {
		if c.Type == ClaimTypeFactual && !c.HasValidPinpoint {
			out = append(out, c)
		}
	}
	return out
}
