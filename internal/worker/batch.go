package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/veridraft/internal/model"
)

// Runner processes one raw haystack into a run result
type Runner interface {
	ProcessHaystack(ctx context.Context, raw string) (*model.RunResult, error)
}

// RunJob is one haystack file to process
type RunJob struct {
	Path   string
	Runner Runner
}

// Execute reads the haystack file and runs the pipeline on it
func (j *RunJob) Execute(ctx context.Context) Result {
	raw, err := os.ReadFile(j.Path)
	if err != nil {
		return &RunOutcome{Path: j.Path, Error: fmt.Errorf("read haystack: %w", err)}
	}

	result, err := j.Runner.ProcessHaystack(ctx, string(raw))
	if err != nil {
		return &RunOutcome{Path: j.Path, Error: err}
	}

	result.Subject = j.Path
	return &RunOutcome{Path: j.Path, Result: result}
}

// RunOutcome is the result of one batch run
type RunOutcome struct {
	Path   string
	Result *model.RunResult
	Error  error
}

// GetError returns the error from the run, if any
func (r *RunOutcome) GetError() error {
	return r.Error
}

// BatchProcessor fans independent pipeline runs out over a worker pool.
// Runs share no mutable state, so only concurrency is bounded here.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessPaths runs the pipeline over each haystack file concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*RunOutcome {
	if len(paths) == 0 {
		return []*RunOutcome{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&RunJob{Path: path, Runner: b.runner})
	}

	results := pool.Wait()

	outcomes := make([]*RunOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*RunOutcome)
	}

	return outcomes
}

// ProcessListFile reads haystack paths from a list file and processes them
func (b *BatchProcessor) ProcessListFile(ctx context.Context, listPath string) ([]*RunOutcome, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a list file (one per line)
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
