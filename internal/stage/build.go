package stage

import (
	"context"
	"fmt"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
)

const buildSystem = `You are the builder. Generate a deterministic implementation of the
approved specification, with full traceability to the spec. The spec hash has
already been verified against the architecture ledger.`

// Build generates implementation code from an approved specification.
// Callers must pass the spec-hash gate before invoking this stage.
type Build struct {
	agent agent.Agent
}

// NewBuild creates the Build stage
func NewBuild(a agent.Agent) *Build {
	return &Build{agent: a}
}

// Run invokes the agent with exactly the spec text and the architecture
// ledger, and returns the generated code. Code is free text, so there is no
// structural parse and no fallback path.
func (s *Build) Run(ctx context.Context, specText string, ledger *model.ArchitectureLedger) (string, error) {
	resp, err := s.agent.Invoke(ctx, agent.Request{
		Stage:  model.StageBuild,
		System: buildSystem,
		Inputs: map[string]string{
			"spec_md":             specText,
			"architecture_ledger": mustJSON(ledger),
		},
		OutputField: "implementation_code",
	})
	if err != nil {
		return "", fmt.Errorf("build: %w", err)
	}

	return stripFences(resp.Field("implementation_code")), nil
}
