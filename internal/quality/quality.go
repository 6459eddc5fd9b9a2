// Package quality runs read-only invariant checks over the silver layer.
// A failing check is logged and reported, never raised: the gate is
// observability, not a circuit breaker, and the pipeline always proceeds.
package quality

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

type Checker struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewChecker(db *sql.DB, logger *zap.Logger) *Checker {
	return &Checker{
		db:     db,
		logger: logger,
	}
}

type check struct {
	name string
	// query must return a single count; zero means pass.
	query string
	// invert flips the rule for checks where zero means fail.
	invert  bool
	failMsg string
}

var checks = []check{
	{
		name: "no_duplicate_jobs",
		query: `SELECT COUNT(*) FROM (
			SELECT job_id FROM fact_job_posting GROUP BY job_id HAVING COUNT(*) > 1
		)`,
		failMsg: "duplicate job_ids in fact_job_posting",
	},
	{
		name: "company_fk_ok",
		query: `SELECT COUNT(*)
			FROM fact_job_posting f
			LEFT JOIN dim_company c ON c.company_id = f.company_id
			WHERE c.company_id IS NULL`,
		failMsg: "fact rows without a matching dim_company entry",
	},
	{
		name:    "no_null_titles",
		query:   "SELECT COUNT(*) FROM fact_job_posting WHERE title IS NULL",
		failMsg: "fact rows with a NULL title",
	},
	{
		name:    "no_blank_skills",
		query:   "SELECT COUNT(*) FROM bridge_job_skill WHERE TRIM(skill) = ''",
		failMsg: "blank skill entries in bridge_job_skill",
	},
	{
		name:    "fact_not_empty",
		query:   "SELECT COUNT(*) FROM fact_job_posting",
		invert:  true,
		failMsg: "fact_job_posting is empty",
	},
}

// RunChecks evaluates every check independently and returns a name→passed
// map. Query errors count as failures but never abort the run.
func (c *Checker) RunChecks(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(checks))

	for _, chk := range checks {
		var count int64
		if err := c.db.QueryRowContext(ctx, chk.query).Scan(&count); err != nil {
			c.logger.Warn("quality check errored",
				zap.String("check", chk.name),
				zap.Error(err))
			results[chk.name] = false
			continue
		}

		passed := count == 0
		if chk.invert {
			passed = count > 0
		}

		if passed {
			c.logger.Info("quality check passed", zap.String("check", chk.name))
		} else {
			c.logger.Warn("quality check failed",
				zap.String("check", chk.name),
				zap.String("detail", chk.failMsg),
				zap.Int64("count", count))
		}
		results[chk.name] = passed
	}

	passedCount := 0
	for _, ok := range results {
		if ok {
			passedCount++
		}
	}
	c.logger.Info("quality checks complete",
		zap.Int("passed", passedCount),
		zap.Int("total", len(results)))
	return results
}
