package model

// SchemaVersionSentenceRow identifies the trace map row schema in serialized artifacts
const SchemaVersionSentenceRow = "sentence_row.v1"

// SentenceRow binds one unit of generated narrative text to the evidence
// identifiers that support it. Zero evidence IDs means an unsupported claim.
type SentenceRow struct {
	Sentence    string   `json:"sentence"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// DraftArtifact is the output of one Draft stage invocation: the narrative,
// its sentence-to-evidence trace map, and the claim ledger extracted from it.
type DraftArtifact struct {
	Narrative   string        `json:"narrative"`
	SentenceMap []SentenceRow `json:"sentence_map"`
	ClaimLedger ClaimLedger   `json:"claim_ledger"`
}
