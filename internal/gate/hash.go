// Package gate implements the two trust gates that guard the pipeline:
// the coverage gate over claim ledgers and the spec-hash gate in front of
// code generation. Both are pure functions over artifacts; neither invokes
// an agent.
package gate

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the SHA-256 hex digest of content. The same function
// versions evidence items, keys the artifact cache, and verifies approved
// specifications, so a hash recorded anywhere in the system is comparable
// everywhere.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
