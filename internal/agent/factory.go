package agent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/worker"
)

// New creates an agent from stage configuration.
func New(config model.AgentConfig) (Agent, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIAgent(config)

	case "anthropic", "claude":
		return NewAnthropicAgent(config)

	case "ollama":
		return NewOllamaAgent(config)

	case "":
		return nil, fmt.Errorf("no provider configured")

	default:
		return nil, fmt.Errorf("unknown agent provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// Registry binds concrete agents to stage names. Construction is
// configuration-driven: one agent per configured stage, resolved by name at
// call time.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry builds an agent per pipeline stage from configuration. When a
// request rate is configured, every agent shares one per-provider limiter so
// concurrent runs cannot exceed a provider's rate together.
func NewRegistry(cfg *model.Config) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent)}

	var limiter *worker.Limiter
	if cfg.Concurrency.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	}

	for _, stage := range model.StageNames() {
		a, err := New(cfg.StageAgent(stage))
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
		if limiter != nil {
			a = Throttled(a, limiter)
		}
		r.agents[stage] = a
	}

	return r, nil
}

// EmptyRegistry returns a registry with no bindings. Agents are attached
// with Bind.
func EmptyRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Bind attaches an agent to a stage name, replacing any existing binding.
func (r *Registry) Bind(stage string, a Agent) {
	r.agents[stage] = a
}

// Get resolves the agent bound to a stage name.
func (r *Registry) Get(stage string) (Agent, error) {
	a, ok := r.agents[stage]
	if !ok || a == nil {
		return nil, fmt.Errorf("no agent bound for stage %s", stage)
	}
	return a, nil
}
