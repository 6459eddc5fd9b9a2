// Package marts rebuilds the gold layer: small, pre-aggregated tables the
// dashboard reads directly. Each mart is a pure projection of the silver
// layer and is fully rebuilt on every run.
package marts

import (
	"context"
	"database/sql"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"

	"go.uber.org/zap"
)

type Builder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewBuilder(db *sql.DB, logger *zap.Logger) *Builder {
	return &Builder{
		db:     db,
		logger: logger,
	}
}

// Stats maps mart table name to its row count after the rebuild.
type Stats map[string]int64

type martDef struct {
	table        string
	insertSelect string
}

var martDefs = []martDef{
	{
		table: "mart_top_skills_daily",
		insertSelect: `
			INSERT INTO mart_top_skills_daily (date, skill, job_count)
			SELECT
				COALESCE(f.posted_date, DATE('now')) AS date,
				b.skill,
				COUNT(DISTINCT f.job_id)             AS job_count
			FROM fact_job_posting f
			JOIN bridge_job_skill b ON b.job_id = f.job_id
			WHERE b.skill != ''
			GROUP BY 1, 2
			ORDER BY 3 DESC
		`,
	},
	{
		table: "mart_skill_by_seniority",
		insertSelect: `
			INSERT INTO mart_skill_by_seniority (seniority, skill, job_count)
			SELECT
				r.seniority,
				b.skill,
				COUNT(DISTINCT f.job_id) AS job_count
			FROM fact_job_posting f
			JOIN dim_role r         ON r.role_id = f.role_id
			JOIN bridge_job_skill b ON b.job_id  = f.job_id
			WHERE b.skill != ''
			  AND r.seniority != 'unknown'
			GROUP BY 1, 2
			ORDER BY 3 DESC
		`,
	},
	{
		table: "mart_top_companies",
		insertSelect: `
			INSERT INTO mart_top_companies (company_name, job_count)
			SELECT
				c.company_name,
				COUNT(DISTINCT f.job_id) AS job_count
			FROM fact_job_posting f
			JOIN dim_company c ON c.company_id = f.company_id
			WHERE c.company_name IS NOT NULL
			GROUP BY 1
			ORDER BY 2 DESC
			LIMIT 50
		`,
	},
}

// RebuildAll refreshes every mart with a transactional truncate-and-reload
// and returns the resulting row counts. Given identical silver data the
// output is identical: the aggregations carry no state of their own.
func (b *Builder) RebuildAll(ctx context.Context) (Stats, error) {
	stats := make(Stats, len(martDefs))

	for _, def := range martDefs {
		count, err := database.RebuildTable(ctx, b.db, def.table, def.insertSelect)
		if err != nil {
			return stats, err
		}
		stats[def.table] = count
		b.logger.Info("mart rebuilt",
			zap.String("mart", def.table),
			zap.Int64("rows", count))
	}

	return stats, nil
}
