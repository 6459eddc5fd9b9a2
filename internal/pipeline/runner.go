// Package pipeline sequences the six warehouse stages: migrate, ingest,
// normalize, quality-check, enrich, rebuild marts. Stages run strictly in
// order and none is skipped; each stage degrades internally rather than
// aborting the run.
package pipeline

import (
	"context"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema/migrations"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/enrich"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/ingest"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/marts"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/normalize"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/quality"

	"go.uber.org/zap"
)

// Summary is the consolidated outcome of one pipeline run; every stage's
// counts surface here so fallback usage is visible without reading logs.
type Summary struct {
	Ingest    ingest.Stats
	Normalize normalize.Stats
	Quality   map[string]bool
	Enrich    enrich.Stats
	Marts     marts.Stats
	Elapsed   time.Duration
}

type Runner struct {
	migrator   *schema.Migrator
	ingestor   *ingest.Ingestor
	normalizer *normalize.Normalizer
	checker    *quality.Checker
	enricher   *enrich.Enricher
	marts      *marts.Builder
	logger     *zap.Logger
}

func NewRunner(
	migrator *schema.Migrator,
	ingestor *ingest.Ingestor,
	normalizer *normalize.Normalizer,
	checker *quality.Checker,
	enricher *enrich.Enricher,
	martsBuilder *marts.Builder,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		migrator:   migrator,
		ingestor:   ingestor,
		normalizer: normalizer,
		checker:    checker,
		enricher:   enricher,
		marts:      martsBuilder,
		logger:     logger,
	}
}

func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	r.logger.Info("pipeline starting")

	r.logger.Info("stage 1/6: preparing warehouse schema")
	if err := r.migrator.ApplyAll(ctx, migrations.All); err != nil {
		// Without the store nothing downstream can run.
		return summary, err
	}

	r.logger.Info("stage 2/6: ingesting postings")
	ingestStats, err := r.ingestor.IngestAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.Ingest = ingestStats

	r.logger.Info("stage 3/6: normalizing raw payloads")
	normStats, err := r.normalizer.NormalizeAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.Normalize = normStats

	r.logger.Info("stage 4/6: running quality checks")
	summary.Quality = r.checker.RunChecks(ctx)

	r.logger.Info("stage 5/6: enriching postings")
	enrichStats, err := r.enricher.EnrichAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.Enrich = enrichStats

	r.logger.Info("stage 6/6: rebuilding marts")
	martStats, err := r.marts.RebuildAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.Marts = martStats

	summary.Elapsed = time.Since(start)
	r.logSummary(summary)
	return summary, nil
}

func (r *Runner) logSummary(s Summary) {
	qualityPassed := 0
	for _, ok := range s.Quality {
		if ok {
			qualityPassed++
		}
	}

	r.logger.Info("pipeline complete",
		zap.Duration("elapsed", s.Elapsed),
		zap.Int("ingested_new", s.Ingest.TotalNew()),
		zap.Int("normalized", s.Normalize.Inserted),
		zap.Int("normalize_skipped", s.Normalize.Skipped),
		zap.Int("quality_passed", qualityPassed),
		zap.Int("quality_total", len(s.Quality)),
		zap.Int("enriched", s.Enrich.Enriched),
		zap.Int("enriched_via_llm", s.Enrich.LLMUsed),
		zap.Int("enriched_via_fallback", s.Enrich.Fallback),
		zap.Int64("mart_skill_rows", s.Marts["mart_top_skills_daily"]),
		zap.Int64("mart_seniority_rows", s.Marts["mart_skill_by_seniority"]),
		zap.Int64("mart_company_rows", s.Marts["mart_top_companies"]))
}
