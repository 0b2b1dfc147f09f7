// Package pipeline composes the stages, gates, and revision controller into
// the two public entry points: ProcessHaystack and GenerateCode.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/veridraft/internal/agent"
	"github.com/ppiankov/veridraft/internal/cache"
	"github.com/ppiankov/veridraft/internal/gate"
	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/revise"
	"github.com/ppiankov/veridraft/internal/stage"
)

// Pipeline orchestrates one run from raw haystack to verified draft, and
// guards code generation behind the spec-hash gate. A Pipeline is safe for
// concurrent runs: all per-run state lives in local values owned by one
// call.
type Pipeline struct {
	normalize  *stage.Normalize
	rank       *stage.Rank
	controller *revise.Controller
	build      *stage.Build
	renderer   *Renderer
	artifacts  cache.Cache // nil when caching is disabled
	config     *model.Config
}

// NewPipeline creates a pipeline from configuration and an agent registry.
// Gate configuration is validated here: a bad threshold or cycle budget
// fails fast, before any stage can be invoked.
func NewPipeline(cfg *model.Config, agents *agent.Registry) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	normalizeAgent, err := agents.Get(model.StageNormalize)
	if err != nil {
		return nil, err
	}
	rankAgent, err := agents.Get(model.StageRank)
	if err != nil {
		return nil, err
	}
	draftAgent, err := agents.Get(model.StageDraft)
	if err != nil {
		return nil, err
	}
	auditAgent, err := agents.Get(model.StageAudit)
	if err != nil {
		return nil, err
	}
	buildAgent, err := agents.Get(model.StageBuild)
	if err != nil {
		return nil, err
	}

	controller, err := revise.NewController(
		stage.NewDraft(draftAgent),
		stage.NewAudit(auditAgent),
		cfg.Pipeline.MaxRevisionCycles,
		cfg.Pipeline.Threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	var artifacts cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		artifacts = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	} else if cfg.Cache.Enabled {
		artifacts = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
	}

	return &Pipeline{
		normalize:  stage.NewNormalize(normalizeAgent),
		rank:       stage.NewRank(rankAgent),
		controller: controller,
		build:      stage.NewBuild(buildAgent),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		artifacts:  artifacts,
		config:     cfg,
	}, nil
}

// ProcessHaystack runs Normalize, Rank, and the revision loop to
// convergence or exhaustion, and returns the full artifact bundle either
// way. A FAIL status is a result, not an error.
func (p *Pipeline) ProcessHaystack(ctx context.Context, raw string) (*model.RunResult, error) {
	startedAt := time.Now().UTC()

	normalized, normOutcome, err := p.cachedNormalize(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalize stage: %w", err)
	}

	ranked, rankOutcome, err := p.cachedRank(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("rank stage: %w", err)
	}

	loop, err := p.controller.Run(ctx, ranked)
	if err != nil {
		return nil, fmt.Errorf("revision loop: %w", err)
	}

	result := &model.RunResult{
		StartedAt: startedAt,
		Evidence:  ranked,
		Draft:     loop.Draft,
		Audit:     loop.Audit,
		Status:    loop.Audit.Status,
		Cycles:    loop.Cycles,
	}

	for _, rec := range loop.History {
		result.History = append(result.History, rec.Audit)
	}

	result.DegradedStages = degradedStages(normOutcome, rankOutcome, loop.History)

	return result, nil
}

// GenerateCode verifies the spec hash against the architecture ledger and,
// only on success, invokes the Build stage with exactly the spec text and
// the ledger. A mismatch is a blocking error: no agent cost is incurred on
// an unverified spec.
func (p *Pipeline) GenerateCode(ctx context.Context, specText string, ledger *model.ArchitectureLedger) (string, error) {
	if err := gate.VerifySpecHash(specText, ledger); err != nil {
		return "", fmt.Errorf("spec-hash gate: %w", err)
	}

	code, err := p.build.Run(ctx, specText, ledger)
	if err != nil {
		return "", fmt.Errorf("build stage: %w", err)
	}

	return code, nil
}

// RenderResult renders the result bundle to the configured outputs and
// prints a summary to stdout.
func (p *Pipeline) RenderResult(result *model.RunResult, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(result)
	return nil
}

// cachedNormalize runs the Normalize stage through the artifact cache.
// Only clean parses are cached; a degraded artifact is recomputed next run.
func (p *Pipeline) cachedNormalize(ctx context.Context, raw string) ([]model.EvidenceItem, stage.Outcome, error) {
	if p.artifacts == nil {
		return p.normalize.Run(ctx, raw)
	}

	opts := p.config.StageAgent(model.StageNormalize)
	key := cache.StageKey(model.StageNormalize, opts.Provider, opts.Model, raw)

	if data, found := p.artifacts.Get(key); found {
		var items []model.EvidenceItem
		if err := json.Unmarshal(data, &items); err == nil {
			return items, stage.Outcome{}, nil
		}
	}

	items, outcome, err := p.normalize.Run(ctx, raw)
	if err == nil && !outcome.Degraded {
		if data, mErr := json.Marshal(items); mErr == nil {
			_ = p.artifacts.Set(key, data, 0)
		}
	}
	return items, outcome, err
}

// cachedRank runs the Rank stage through the artifact cache.
func (p *Pipeline) cachedRank(ctx context.Context, items []model.EvidenceItem) ([]model.EvidenceItem, stage.Outcome, error) {
	if p.artifacts == nil {
		return p.rank.Run(ctx, items)
	}

	input, mErr := json.Marshal(items)
	if mErr != nil {
		return p.rank.Run(ctx, items)
	}

	opts := p.config.StageAgent(model.StageRank)
	key := cache.StageKey(model.StageRank, opts.Provider, opts.Model, string(input))

	if data, found := p.artifacts.Get(key); found {
		var ranked []model.EvidenceItem
		if err := json.Unmarshal(data, &ranked); err == nil {
			return ranked, stage.Outcome{}, nil
		}
	}

	ranked, outcome, err := p.rank.Run(ctx, items)
	if err == nil && !outcome.Degraded {
		if data, mErr := json.Marshal(ranked); mErr == nil {
			_ = p.artifacts.Set(key, data, 0)
		}
	}
	return ranked, outcome, err
}

// degradedStages collects the names of stages that fell back, for the
// result bundle's soft-failure report.
func degradedStages(norm, rank stage.Outcome, history []revise.CycleRecord) []string {
	var out []string
	if norm.Degraded {
		out = append(out, model.StageNormalize)
	}
	if rank.Degraded {
		out = append(out, model.StageRank)
	}

	draftSeen, auditSeen := false, false
	for _, rec := range history {
		if rec.DraftDegraded && !draftSeen {
			out = append(out, model.StageDraft)
			draftSeen = true
		}
		if rec.AuditDegraded && !auditSeen {
			out = append(out, model.StageAudit)
			auditSeen = true
		}
	}
	return out
}
