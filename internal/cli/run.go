package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/pipeline"
)

var (
	runOutJSON    string
	runOutMD      string
	runTimeout    time.Duration
	runThreshold  float64
	runMaxCycles  int
	runNoCache    bool
	runNoFooter   bool
	runProvider   string
	runModel      string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <haystack-file|->",
	Short: "Process a raw haystack into a verified, citation-traceable draft",
	Long: `Run processes raw source material through the full pipeline:
normalize into evidence items, rank by signal quality, draft a narrative
with a sentence-to-evidence trace map, then audit the claim ledger under
the coverage gate, revising up to the configured cycle budget.

The run always produces a complete artifact bundle. A draft that never
clears the gate is returned with status FAIL and full diagnostics, not
discarded.

Example:
  veridraft run notes.txt
  veridraft run notes.txt --json report.json --md report.md
  veridraft run - --threshold 0.9 --max-cycles 5 < notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Output flags
	runCmd.Flags().StringVar(&runOutJSON, "json", "", "write the full report as JSON to this path")
	runCmd.Flags().StringVar(&runOutMD, "md", "", "output Markdown path (optional)")

	// Gate flags
	runCmd.Flags().Float64Var(&runThreshold, "threshold", -1, "coverage threshold in [0,1] (default from config)")
	runCmd.Flags().IntVar(&runMaxCycles, "max-cycles", 0, "maximum revision cycles (default from config)")

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall run timeout")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "disable artifact cache (force fresh agent calls)")
	runCmd.Flags().BoolVar(&runNoFooter, "no-footer", false, "disable footer in Markdown reports")

	// Agent flags
	runCmd.Flags().StringVar(&runProvider, "provider", "", "agent provider for all stages (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&runModel, "model", "", "agent model for all stages")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	raw, err := readHaystack(args[0])
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if runThreshold >= 0 {
		cfg.Pipeline.Threshold = runThreshold
	}
	if runMaxCycles > 0 {
		cfg.Pipeline.MaxRevisionCycles = runMaxCycles
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !runNoCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !runNoFooter
	applyProviderFlags(cfg, runProvider, runModel)

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

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing haystack (%d bytes), threshold %.0f%%, budget %d cycles\n",
			len(raw), cfg.Pipeline.Threshold*100, cfg.Pipeline.MaxRevisionCycles)
	}

	result, err := p.ProcessHaystack(ctx, raw)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if args[0] != "-" {
		result.Subject = args[0]
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d evidence items, %d cycles, status %s\n",
			len(result.Evidence), result.Cycles, result.Status)
	}

	if err := p.RenderResult(result, runOutJSON, runOutMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// readHaystack reads the raw input from a file, or stdin for "-"
func readHaystack(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read haystack: %w", err)
	}
	return string(data), nil
}
