package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ppiankov/veridraft/internal/model"
)

// buildConfig assembles run configuration: defaults, then config file and
// environment via viper, then command flags applied by the caller.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if viper.ConfigFileUsed() != "" || viper.IsSet("pipeline") || viper.IsSet("stages") {
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse configuration: %w", err)
		}
	}

	if cfg.Cache.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(home, ".veridraft", "cache")
		}
	}

	// Provider API keys come from the conventional environment variables
	// when the config file carries none.
	for name, stageCfg := range cfg.Stages {
		if stageCfg.APIKey != "" {
			continue
		}
		switch stageCfg.Provider {
		case "openai":
			stageCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			stageCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "ollama":
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && stageCfg.BaseURL == "" {
				stageCfg.BaseURL = baseURL
			}
		}
		cfg.Stages[name] = stageCfg
	}

	return cfg, nil
}

// applyProviderFlags overrides every stage's provider and model from flags,
// when set.
func applyProviderFlags(cfg *model.Config, provider, modelName string) {
	if provider == "" && modelName == "" {
		return
	}
	for name, stageCfg := range cfg.Stages {
		if provider != "" {
			stageCfg.Provider = provider
			stageCfg.APIKey = "" // re-resolved from env below
		}
		if modelName != "" {
			stageCfg.Model = modelName
		}
		cfg.Stages[name] = stageCfg
	}
	if provider != "" {
		for name, stageCfg := range cfg.Stages {
			switch provider {
			case "openai":
				stageCfg.APIKey = os.Getenv("OPENAI_API_KEY")
			case "anthropic", "claude":
				stageCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			cfg.Stages[name] = stageCfg
		}
	}
}

// requireKeys verifies that every configured provider has what it needs
// before the pipeline is constructed.
func requireKeys(cfg *model.Config) error {
	for name, stageCfg := range cfg.Stages {
		switch stageCfg.Provider {
		case "openai":
			if stageCfg.APIKey == "" {
				return fmt.Errorf("stage %s: OPENAI_API_KEY environment variable not set", name)
			}
		case "anthropic", "claude":
			if stageCfg.APIKey == "" {
				return fmt.Errorf("stage %s: ANTHROPIC_API_KEY environment variable not set", name)
			}
		}
	}
	return nil
}
