package model

import (
	"fmt"
	"time"
)

// Stage names used as configuration and registry keys.
const (
	StageNormalize = "normalize"
	StageRank      = "rank"
	StageDraft     = "draft"
	StageAudit     = "audit"
	StageBuild     = "build"
)

// StageNames lists every pipeline stage in execution order.
func StageNames() []string {
	return []string{StageNormalize, StageRank, StageDraft, StageAudit, StageBuild}
}

// AgentConfig holds the agent options for one stage
type AgentConfig struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model,omitempty" mapstructure:"model"`

	// APIKey for OpenAI/Anthropic
	APIKey string `yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout for API requests in seconds
	Timeout int `yaml:"timeout,omitempty" mapstructure:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`

	// Temperature for generation (Build runs at 0 regardless)
	Temperature float64 `yaml:"temperature,omitempty" mapstructure:"temperature"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// PipelineConfig holds pipeline-wide settings
type PipelineConfig struct {
	// MaxRevisionCycles bounds the draft/audit loop. Must be >= 1;
	// 1 means exactly one audit attempt with no revision.
	MaxRevisionCycles int `yaml:"max_revision_cycles" mapstructure:"max_revision_cycles"`

	// Threshold is the coverage ratio required to pass the gate, in [0, 1].
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// CacheConfig holds artifact cache settings
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir,omitempty" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig holds worker settings for batch runs
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`

	// RequestsPerSecond rate-limits agent invocations per provider
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig holds rendering settings
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// RegistryConfig holds capability registry settings
type RegistryConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// Config is the complete veridraft configuration
type Config struct {
	Pipeline    PipelineConfig         `yaml:"pipeline" mapstructure:"pipeline"`
	Stages      map[string]AgentConfig `yaml:"stages" mapstructure:"stages"`
	Cache       CacheConfig            `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig      `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig           `yaml:"output" mapstructure:"output"`
	Registry    RegistryConfig         `yaml:"registry" mapstructure:"registry"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	stages := make(map[string]AgentConfig, len(StageNames()))
	for _, name := range StageNames() {
		stages[name] = AgentConfig{
			Provider:    "openai",
			Timeout:     60,
			MaxTokens:   4000,
			Temperature: 0.3,
		}
	}
	// Code generation is deterministic
	build := stages[StageBuild]
	build.Temperature = 0
	stages[StageBuild] = build

	return &Config{
		Pipeline: PipelineConfig{
			MaxRevisionCycles: 3,
			Threshold:         0.95,
		},
		Stages: stages,
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks gate configuration. Violations are fatal at run start:
// no stage may be invoked with a misconfigured gate.
func (c *Config) Validate() error {
	if c.Pipeline.MaxRevisionCycles < 1 {
		return fmt.Errorf("pipeline.max_revision_cycles must be >= 1, got %d", c.Pipeline.MaxRevisionCycles)
	}
	if c.Pipeline.Threshold < 0 || c.Pipeline.Threshold > 1 {
		return fmt.Errorf("pipeline.threshold must be in [0, 1], got %g", c.Pipeline.Threshold)
	}
	return nil
}

// StageAgent returns the agent options for a stage, falling back to an
// empty config for unknown names.
func (c *Config) StageAgent(stage string) AgentConfig {
	if c.Stages == nil {
		return AgentConfig{}
	}
	return c.Stages[stage]
}
