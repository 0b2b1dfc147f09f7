package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/pipeline"
)

var (
	buildLedgerPath string
	buildOut        string
	buildTimeout    time.Duration
	buildProvider   string
	buildModel      string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <spec-file>",
	Short: "Generate code from an approved specification",
	Long: `Build generates implementation code from a specification, but only after
the spec-hash gate passes: the specification's content hash must exactly
match the hash recorded under active_spec.spec_hash in the architecture
ledger. On mismatch the build agent is never invoked.

Example:
  veridraft build spec.md --ledger architecture.json --out generated.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildLedgerPath, "ledger", "", "architecture ledger JSON path (required)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output path for generated code (default: stdout)")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 10*time.Minute, "overall build timeout")
	buildCmd.Flags().StringVar(&buildProvider, "provider", "", "agent provider (openai, anthropic, ollama)")
	buildCmd.Flags().StringVar(&buildModel, "model", "", "agent model")
	_ = buildCmd.MarkFlagRequired("ledger")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	specData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}

	ledger, err := model.LoadArchitectureLedger(buildLedgerPath)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Output.Verbose = verbose
	applyProviderFlags(cfg, buildProvider, buildModel)

	if err := requireKeys(cfg); err != nil {
		return err
	}

	agents, err := agent.NewRegistry(cfg)
	if err != nil {
		return fmt.Errorf("configure agents: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, agents)
	if err != nil {
		return err
	}

	code, err := p.GenerateCode(ctx, string(specData), ledger)
	if err != nil {
		return err
	}

	if buildOut == "" {
		fmt.Println(code)
		return nil
	}

	if err := os.WriteFile(buildOut, []byte(code), 0644); err != nil {
		return fmt.Errorf("write generated code: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote generated code: %s\n", buildOut)
	}

	return nil
}
