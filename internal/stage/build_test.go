package stage

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
)

func TestBuild_PassesSpecAndLedger(t *testing.T) {
	var captured agent.Request
	capture := agent.Func(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		captured = req
		return agent.Response{Outputs: map[string]string{req.OutputField: "package main\n"}}, nil
	})

	ledger := &model.ArchitectureLedger{
		ActiveSpec: &model.ActiveSpec{Name: "payment-service", SpecHash: "abc"},
	}

	code, err := NewBuild(capture).Run(context.Background(), "# Payment Service\n", ledger)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != "package main" {
		t.Errorf("unexpected code: %q", code)
	}

	if captured.Inputs["spec_md"] != "# Payment Service\n" {
		t.Errorf("expected verbatim spec text, got %q", captured.Inputs["spec_md"])
	}
	if !strings.Contains(captured.Inputs["architecture_ledger"], "payment-service") {
		t.Errorf("expected serialized ledger, got %q", captured.Inputs["architecture_ledger"])
	}
	if len(captured.Inputs) != 2 {
		t.Errorf("expected exactly 2 inputs, got %d", len(captured.Inputs))
	}
}

func TestBuild_StripsCodeFence(t *testing.T) {
	fenced := scriptedAgent("```go\nfunc main() {}\n```")

	code, err := NewBuild(fenced).Run(context.Background(), "spec", &model.ArchitectureLedger{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != "func main() {}" {
		t.Errorf("expected fence stripped, got %q", code)
	}
}
