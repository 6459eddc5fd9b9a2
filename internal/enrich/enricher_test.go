package enrich

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache/memory"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/dbtest"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	extraction Extraction
	err        error
	calls      int
}

func (f *fakeLLM) Extract(ctx context.Context, title, description string) (Extraction, error) {
	f.calls++
	if f.err != nil {
		return Extraction{}, f.err
	}
	return f.extraction, nil
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c := memory.New(cache.Options{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedJob(t *testing.T, db *sql.DB, jobID, title, description string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO fact_job_posting
			(job_id, source, source_job_id, title, company_id, location_id, role_id,
			 description, description_hash, inserted_at)
		VALUES (?, 'remotive', ?, ?, 'c1', 'l1', 'r1', ?, ?, ?)
	`, jobID, jobID, title, description, identity.ContentHash(description), time.Now().UTC())
	require.NoError(t, err)
}

func TestEnrichAllFallback(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	seedJob(t, db, "job-1", "Senior Data Engineer", "We use Python and SQL on Airflow.")

	e := NewEnricher(db, nil, newTestCache(t), Options{UseLLM: false}, zap.NewNop())
	stats, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 1, stats.Fallback)
	assert.Equal(t, 0, stats.LLMUsed)

	var roleFamily, seniority string
	require.NoError(t, db.QueryRowContext(ctx, `
		SELECT r.role_family, r.seniority
		FROM fact_job_posting f JOIN dim_role r ON r.role_id = f.role_id
		WHERE f.job_id = 'job-1'
	`).Scan(&roleFamily, &seniority))
	assert.Equal(t, "data_engineering", roleFamily)
	assert.Equal(t, "senior", seniority)

	var skills int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bridge_job_skill WHERE job_id = 'job-1'").Scan(&skills))
	assert.Equal(t, 3, skills)

	var enrichedAt sql.NullTime
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT enriched_at FROM fact_job_posting WHERE job_id = 'job-1'").Scan(&enrichedAt))
	assert.True(t, enrichedAt.Valid)
}

func TestEnrichAllUsesLLM(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	seedJob(t, db, "job-1", "Engineer", "description one")

	llm := &fakeLLM{extraction: NewExtraction("staff", "software", []string{"go"})}
	e := NewEnricher(db, llm, newTestCache(t), Options{UseLLM: true}, zap.NewNop())

	stats, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LLMUsed)
	assert.Equal(t, 0, stats.Fallback)
	assert.Equal(t, 1, llm.calls)

	var seniority string
	require.NoError(t, db.QueryRowContext(ctx, `
		SELECT r.seniority FROM fact_job_posting f
		JOIN dim_role r ON r.role_id = f.role_id WHERE f.job_id = 'job-1'
	`).Scan(&seniority))
	assert.Equal(t, "staff", seniority)
}

func TestEnrichAllLLMFailureFallsBack(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	seedJob(t, db, "job-1", "Senior Analyst", "sql and tableau dashboards")

	llm := &fakeLLM{err: assert.AnError}
	e := NewEnricher(db, llm, newTestCache(t), Options{UseLLM: true}, zap.NewNop())

	stats, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 0, stats.LLMUsed)
	assert.Equal(t, 1, stats.Fallback)

	var skills int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bridge_job_skill WHERE job_id = 'job-1'").Scan(&skills))
	assert.Equal(t, 2, skills)
}

func TestEnrichAllSharedDescriptionHitsCache(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	// Same posting syndicated on both boards: identical description.
	seedJob(t, db, "job-1", "Data Engineer", "Build pipelines with dbt.")
	seedJob(t, db, "job-2", "Data Engineer", "Build pipelines with dbt.")

	llm := &fakeLLM{extraction: NewExtraction("mid", "data_engineering", []string{"dbt"})}
	e := NewEnricher(db, llm, newTestCache(t), Options{UseLLM: true}, zap.NewNop())

	stats, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Enriched)
	assert.Equal(t, 1, stats.LLMUsed)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, llm.calls)
}

func TestEnrichAllZeroSkillJobNotReprocessed(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	seedJob(t, db, "job-1", "Gardener", "Tend the office plants.")

	e := NewEnricher(db, nil, newTestCache(t), Options{UseLLM: false}, zap.NewNop())

	first, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Enriched)

	var skills int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bridge_job_skill WHERE job_id = 'job-1'").Scan(&skills))
	assert.Equal(t, 0, skills)

	// Zero skills, but the job is marked enriched and must stay done.
	second, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Enriched)
}

func TestEnrichAllFailedPersistLeavesJobPending(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	seedJob(t, db, "job-1", "Senior Data Engineer", "Python and SQL pipelines.")

	e := NewEnricher(db, nil, newTestCache(t), Options{UseLLM: false}, zap.NewNop())

	// Break the skill writes mid-persist.
	_, err := db.ExecContext(ctx, "ALTER TABLE bridge_job_skill RENAME TO bridge_job_skill_hidden")
	require.NoError(t, err)

	_, err = e.EnrichAll(ctx)
	require.Error(t, err)

	// The failed persist must not have stamped the completion marker.
	var enrichedAt sql.NullTime
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT enriched_at FROM fact_job_posting WHERE job_id = 'job-1'").Scan(&enrichedAt))
	assert.False(t, enrichedAt.Valid)

	_, err = db.ExecContext(ctx, "ALTER TABLE bridge_job_skill_hidden RENAME TO bridge_job_skill")
	require.NoError(t, err)

	stats, err := e.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enriched)

	var skills int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bridge_job_skill WHERE job_id = 'job-1'").Scan(&skills))
	assert.Equal(t, 2, skills)
}

func TestEnrichAllNothingPending(t *testing.T) {
	db := dbtest.New(t)

	e := NewEnricher(db, nil, newTestCache(t), Options{UseLLM: false}, zap.NewNop())
	stats, err := e.EnrichAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
