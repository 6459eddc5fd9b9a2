package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/identity"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("job-ai-warehouse/enrich")

const (
	cacheKeyPrefix   = "extract:"
	progressInterval = 20
)

type Stats struct {
	Enriched  int
	LLMUsed   int
	Fallback  int
	CacheHits int
}

// Options is the explicit enrichment configuration; there is no ambient
// state deciding whether the LLM runs.
type Options struct {
	UseLLM   bool
	CacheTTL time.Duration
}

// Enricher classifies every fact row that has not been enriched yet.
// Extraction results are cached by description content hash, so a
// description seen in a previous run (or from another source in this run)
// costs no LLM call.
type Enricher struct {
	db     *sql.DB
	llm    LLMClient
	cache  cache.Cache
	opts   Options
	logger *zap.Logger
}

func NewEnricher(db *sql.DB, llm LLMClient, c cache.Cache, opts Options, logger *zap.Logger) *Enricher {
	return &Enricher{
		db:     db,
		llm:    llm,
		cache:  c,
		opts:   opts,
		logger: logger,
	}
}

type pendingJob struct {
	jobID       string
	title       string
	description string
	descHash    string
}

// EnrichAll processes every unenriched job exactly once. No single job's
// failure aborts the batch: the LLM path degrades to the keyword
// fallback, and the fallback cannot fail.
func (e *Enricher) EnrichAll(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Enricher.EnrichAll")
	defer span.End()

	jobs, err := e.pendingJobs(ctx)
	if err != nil {
		return Stats{}, err
	}

	e.logger.Info("enrichment starting", zap.Int("pending", len(jobs)))

	stats := Stats{}
	for _, job := range jobs {
		extraction := e.extract(ctx, job, &stats)

		if err := e.persist(ctx, job, extraction); err != nil {
			return stats, err
		}
		stats.Enriched++

		if stats.Enriched%progressInterval == 0 {
			e.logger.Info("enrichment progress",
				zap.Int("enriched", stats.Enriched),
				zap.Int("pending", len(jobs)))
		}
	}

	span.SetAttributes(
		telemetry.Int("enrich.enriched", stats.Enriched),
		telemetry.Int("enrich.llm", stats.LLMUsed),
		telemetry.Int("enrich.fallback", stats.Fallback),
	)
	e.logger.Info("enrichment complete",
		zap.Int("enriched", stats.Enriched),
		zap.Int("llm", stats.LLMUsed),
		zap.Int("fallback", stats.Fallback),
		zap.Int("cache_hits", stats.CacheHits))
	return stats, nil
}

// pendingJobs selects on the enriched_at marker, not on bridge-row
// existence: a job whose extraction found zero skills is still done and
// must not be re-submitted on the next run.
func (e *Enricher) pendingJobs(ctx context.Context) ([]pendingJob, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT job_id, COALESCE(title, ''), COALESCE(description, ''), description_hash
		FROM fact_job_posting
		WHERE enriched_at IS NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []pendingJob
	for rows.Next() {
		var j pendingJob
		if err := rows.Scan(&j.jobID, &j.title, &j.description, &j.descHash); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (e *Enricher) extract(ctx context.Context, job pendingJob, stats *Stats) Extraction {
	key := cacheKeyPrefix + job.descHash

	var cached Extraction
	err := e.cache.Get(ctx, key, &cached)
	if err == nil {
		stats.CacheHits++
		return cached
	}
	if err != cache.ErrNotFound {
		e.logger.Warn("extraction cache read failed", zap.String("job_id", job.jobID), zap.Error(err))
	}

	var extraction Extraction
	extracted := false
	if e.opts.UseLLM && e.llm != nil {
		extraction, err = e.llm.Extract(ctx, job.title, job.description)
		if err != nil {
			e.logger.Warn("primary extractor failed, using keyword fallback",
				zap.String("job_id", job.jobID),
				zap.Error(err))
		} else {
			stats.LLMUsed++
			extracted = true
		}
	}
	if !extracted {
		extraction = extractKeywords(job.title, job.description)
		stats.Fallback++
	}

	if err := e.cache.Set(ctx, key, extraction, e.opts.CacheTTL); err != nil {
		e.logger.Warn("extraction cache write failed", zap.String("job_id", job.jobID), zap.Error(err))
	}
	return extraction
}

// persist writes the role, skills and completion marker in one
// transaction. A partially persisted job must never carry enriched_at:
// that would take it out of the pending set with its skills missing.
func (e *Enricher) persist(ctx context.Context, job pendingJob, extraction Extraction) error {
	roleID := identity.DeriveID(string(extraction.RoleFamily), string(extraction.Seniority))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist %s: begin: %w", job.jobID, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO dim_role (role_id, role_family, seniority) VALUES (?, ?, ?)",
		roleID, string(extraction.RoleFamily), string(extraction.Seniority)); err != nil {
		return fmt.Errorf("persist %s: role: %w", job.jobID, err)
	}

	// Skills arrive deduplicated from NewExtraction; the bridge table has
	// no uniqueness constraint of its own.
	for _, skill := range extraction.Skills {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bridge_job_skill (job_id, skill) VALUES (?, ?)",
			job.jobID, skill); err != nil {
			return fmt.Errorf("persist %s: skill: %w", job.jobID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE fact_job_posting SET role_id = ?, enriched_at = ? WHERE job_id = ?",
		roleID, time.Now().UTC(), job.jobID); err != nil {
		return fmt.Errorf("persist %s: mark enriched: %w", job.jobID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist %s: commit: %w", job.jobID, err)
	}
	return nil
}
