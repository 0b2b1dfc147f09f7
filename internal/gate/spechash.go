package gate

import (
	"errors"
	"fmt"

	"github.com/ppiankov/veridraft/internal/model"
)

// ErrNoActiveSpec indicates the architecture ledger has no active spec entry.
var ErrNoActiveSpec = errors.New("architecture ledger has no active spec")

// ErrSpecHashMismatch indicates the spec's content hash does not match the
// hash recorded in the architecture ledger.
var ErrSpecHashMismatch = errors.New("spec hash does not match architecture ledger")

// VerifySpecHash checks that specText hashes to exactly the value recorded in
// the ledger's active spec entry. This is a hard precondition for the Build
// stage: on any failure the caller must not invoke the build agent. It
// enforces that code generation only ever targets a specification a separate
// approval process has already hashed and recorded.
func VerifySpecHash(specText string, ledger *model.ArchitectureLedger) error {
	if ledger == nil || ledger.ActiveSpec == nil || ledger.ActiveSpec.SpecHash == "" {
		return ErrNoActiveSpec
	}

	got := ContentHash(specText)
	want := ledger.ActiveSpec.SpecHash
	if got != want {
		return fmt.Errorf("%w: computed %s, ledger records %s", ErrSpecHashMismatch, got, want)
	}

	return nil
}
