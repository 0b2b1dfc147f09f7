package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/pipeline"
	"github.com/ppiankov/veridraft/internal/worker"
)

var (
	batchOutDir      string
	batchTimeout     time.Duration
	batchConcurrency int
	batchProvider    string
	batchModel       string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Process multiple haystack files concurrently",
	Long: `Batch reads haystack file paths from a list file (one per line, # for
comments) and runs the pipeline over each concurrently. Runs are fully
independent: they share no state beyond the read-only configuration.

Example:
  veridraft batch haystacks.txt --out-dir reports/ --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "reports", "directory for per-run JSON reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 60*time.Minute, "overall batch timeout")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent runs (default from config)")
	batchCmd.Flags().StringVar(&batchProvider, "provider", "", "agent provider for all stages")
	batchCmd.Flags().StringVar(&batchModel, "model", "", "agent model for all stages")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Output.Verbose = verbose
	applyProviderFlags(cfg, batchProvider, batchModel)

	if err := requireKeys(cfg); err != nil {
		return err
	}

	concurrency := batchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.BatchWorkers
	}

	agents, err := agent.NewRegistry(cfg)
	if err != nil {
		return fmt.Errorf("configure agents: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, agents)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)
	outcomes, err := processor.ProcessListFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	if err := os.MkdirAll(batchOutDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	passed, failed, errored := 0, 0, 0
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			errored++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Path, outcome.Error)
			continue
		}

		if outcome.Result.Status == model.AuditPass {
			passed++
		} else {
			failed++
		}

		out := filepath.Join(batchOutDir, reportName(outcome.Path))
		if err := renderer.RenderJSON(outcome.Result, out); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", outcome.Path, err)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %s (%d cycles) → %s\n",
				outcome.Path, outcome.Result.Status, outcome.Result.Cycles, out)
		}
	}

	fmt.Printf("Batch complete: %d passed, %d failed, %d errored (of %d)\n",
		passed, failed, errored, len(outcomes))

	return nil
}

// reportName derives a report file name from a haystack path
func reportName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".report.json"
}
