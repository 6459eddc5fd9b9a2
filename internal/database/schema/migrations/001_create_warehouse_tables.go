package migrations

import "github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"

var CreateWarehouseTables = schema.Migration{
	Version:     1,
	Description: "Create raw, silver and gold warehouse tables",
	Up: `
		CREATE TABLE IF NOT EXISTS raw_job_postings (
			source        TEXT NOT NULL,
			source_job_id TEXT NOT NULL,
			payload_json  TEXT NOT NULL,
			ingested_at   TIMESTAMP NOT NULL,
			UNIQUE (source, source_job_id)
		);

		CREATE TABLE IF NOT EXISTS dim_company (
			company_id   TEXT PRIMARY KEY,
			company_name TEXT
		);

		CREATE TABLE IF NOT EXISTS dim_location (
			location_id   TEXT PRIMARY KEY,
			location_name TEXT,
			remote_flag   BOOLEAN
		);

		CREATE TABLE IF NOT EXISTS dim_role (
			role_id     TEXT PRIMARY KEY,
			role_family TEXT,
			seniority   TEXT
		);

		CREATE TABLE IF NOT EXISTS fact_job_posting (
			job_id           TEXT PRIMARY KEY,
			source           TEXT NOT NULL,
			source_job_id    TEXT NOT NULL,
			title            TEXT,
			company_id       TEXT NOT NULL,
			location_id      TEXT NOT NULL,
			role_id          TEXT NOT NULL,
			posted_date      TEXT,
			description      TEXT,
			description_hash TEXT NOT NULL,
			url              TEXT,
			inserted_at      TIMESTAMP NOT NULL,
			enriched_at      TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS bridge_job_skill (
			job_id TEXT NOT NULL,
			skill  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bridge_job_skill_job_id ON bridge_job_skill (job_id);

		CREATE TABLE IF NOT EXISTS mart_top_skills_daily (
			date      TEXT NOT NULL,
			skill     TEXT NOT NULL,
			job_count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mart_skill_by_seniority (
			seniority TEXT NOT NULL,
			skill     TEXT NOT NULL,
			job_count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mart_top_companies (
			company_name TEXT NOT NULL,
			job_count    INTEGER NOT NULL
		);
	`,
	Down: `
		DROP TABLE IF EXISTS mart_top_companies;
		DROP TABLE IF EXISTS mart_skill_by_seniority;
		DROP TABLE IF EXISTS mart_top_skills_daily;
		DROP INDEX IF EXISTS idx_bridge_job_skill_job_id;
		DROP TABLE IF EXISTS bridge_job_skill;
		DROP TABLE IF EXISTS fact_job_posting;
		DROP TABLE IF EXISTS dim_role;
		DROP TABLE IF EXISTS dim_location;
		DROP TABLE IF EXISTS dim_company;
		DROP TABLE IF EXISTS raw_job_postings;
	`,
}

// All lists every migration in apply order.
var All = []schema.Migration{
	CreateWarehouseTables,
}
