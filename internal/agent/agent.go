// Package agent defines the capability interface the pipeline delegates
// reasoning to, and the providers that implement it. The pipeline never
// inspects how an agent produces output, only the shape of what comes back.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Request carries the named input fields for one agent invocation.
type Request struct {
	// Stage is the pipeline stage making the invocation
	Stage string

	// System is the role/instruction block for the agent
	System string

	// Inputs maps named input fields to text or serialized values
	Inputs map[string]string

	// OutputField names the field the agent's payload is expected under
	OutputField string

	// MaxTokens overrides the provider default when > 0
	MaxTokens int
}

// Response carries the named output fields from one agent invocation.
type Response struct {
	Outputs    map[string]string
	Model      string
	TokensUsed int
}

// Field returns a named output field, or "" when absent.
func (r Response) Field(name string) string {
	if r.Outputs == nil {
		return ""
	}
	return r.Outputs[name]
}

// Agent is an opaque reasoning capability: named inputs in, named outputs
// out. Invocations are synchronous at the stage boundary; a provider may be
// an asynchronous network call internally.
type Agent interface {
	// Name returns the provider name
	Name() string

	// Invoke performs one reasoning call
	Invoke(ctx context.Context, req Request) (Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Func adapts a function to the Agent interface. Useful for wiring scripted
// agents in tests and dry runs.
type Func func(ctx context.Context, req Request) (Response, error)

// Name returns the provider name
func (f Func) Name() string { return "func" }

// Invoke performs one reasoning call
func (f Func) Invoke(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }

// IsAvailable checks if the provider is properly configured and accessible
func (f Func) IsAvailable(ctx context.Context) bool { return true }

// BuildPrompt serializes a request's named input fields into a single prompt.
// Fields are emitted in sorted order so the same request always produces the
// same prompt.
func BuildPrompt(req Request) string {
	var b strings.Builder

	keys := make([]string, 0, len(req.Inputs))
	for k := range req.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "### %s\n%s\n\n", k, req.Inputs[k])
	}

	if req.OutputField != "" {
		fmt.Fprintf(&b, "Respond with the %s payload only. Output valid JSON with no surrounding prose.", req.OutputField)
	}

	return b.String()
}

// textResponse wraps a provider's completion text under the request's
// expected output field.
func textResponse(req Request, text, model string, tokens int) Response {
	field := req.OutputField
	if field == "" {
		field = "output"
	}
	return Response{
		Outputs:    map[string]string{field: text},
		Model:      model,
		TokensUsed: tokens,
	}
}
