package normalize

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/identity"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/models"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("job-ai-warehouse/normalize")

const (
	unknownCompany  = "Unknown"
	defaultLocation = "Remote"
	unknownCategory = "unknown"
)

type Stats struct {
	Inserted int
	Skipped  int
}

// Normalizer turns raw payloads into silver dimension and fact rows.
// Every ID is derived from the row's natural key, so running it again
// over the same raw data writes nothing new.
type Normalizer struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewNormalizer(db *sql.DB, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		db:     db,
		logger: logger,
	}
}

func (n *Normalizer) NormalizeAll(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Normalizer.NormalizeAll")
	defer span.End()

	raw, err := n.rawPostings(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{}
	for _, r := range raw {
		jobID := identity.DeriveID(r.Source, r.SourceJobID)

		var exists int
		err := n.db.QueryRowContext(ctx,
			"SELECT 1 FROM fact_job_posting WHERE job_id = ? LIMIT 1", jobID).Scan(&exists)
		if err == nil {
			stats.Skipped++
			continue
		}
		if err != sql.ErrNoRows {
			return stats, err
		}

		fields, err := extractFields(r.Source, r.Payload)
		if err != nil {
			n.logger.Warn("skipping unparseable raw payload",
				zap.String("source", r.Source),
				zap.String("source_job_id", r.SourceJobID),
				zap.Error(err))
			continue
		}

		posting, company, location, role := buildRows(jobID, r, fields)

		if err := n.upsertDimensions(ctx, company, location, role); err != nil {
			return stats, err
		}
		if err := n.insertFact(ctx, posting); err != nil {
			return stats, err
		}
		stats.Inserted++
	}

	span.SetAttributes(
		telemetry.Int("normalize.inserted", stats.Inserted),
		telemetry.Int("normalize.skipped", stats.Skipped),
	)
	n.logger.Info("normalize complete",
		zap.Int("inserted", stats.Inserted),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (n *Normalizer) rawPostings(ctx context.Context) ([]models.RawPosting, error) {
	rows, err := n.db.QueryContext(ctx,
		"SELECT source, source_job_id, payload_json FROM raw_job_postings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raw []models.RawPosting
	for rows.Next() {
		var r models.RawPosting
		var payload string
		if err := rows.Scan(&r.Source, &r.SourceJobID, &payload); err != nil {
			return nil, err
		}
		r.Payload = []byte(payload)
		raw = append(raw, r)
	}
	return raw, rows.Err()
}

// buildRows maps one raw posting onto the silver-layer rows it produces.
// Missing company and location fall back to fixed sentinels so every fact
// row has all three dimension keys.
func buildRows(jobID string, r models.RawPosting, fields commonFields) (models.JobPosting, models.Company, models.Location, models.Role) {
	companyName := fields.Company
	if companyName == "" {
		companyName = unknownCompany
	}
	locationName := fields.Location
	if locationName == "" {
		locationName = defaultLocation
	}

	company := models.Company{
		CompanyID: identity.DeriveID(companyName),
		Name:      companyName,
	}
	location := models.Location{
		LocationID: identity.DeriveID(locationName),
		Name:       locationName,
		Remote:     strings.Contains(strings.ToLower(locationName), "remote"),
	}
	role := models.Role{
		RoleID:     identity.DeriveID(unknownCategory, unknownCategory),
		RoleFamily: unknownCategory,
		Seniority:  unknownCategory,
	}
	posting := models.JobPosting{
		JobID:           jobID,
		Source:          r.Source,
		SourceJobID:     r.SourceJobID,
		Title:           fields.Title,
		CompanyID:       company.CompanyID,
		LocationID:      location.LocationID,
		RoleID:          role.RoleID,
		PostedDate:      parseDate(fields.Posted),
		Description:     fields.Description,
		DescriptionHash: identity.ContentHash(fields.Description),
		URL:             fields.URL,
		InsertedAt:      time.Now().UTC(),
	}
	return posting, company, location, role
}

func (n *Normalizer) upsertDimensions(ctx context.Context, company models.Company, location models.Location, role models.Role) error {
	if _, err := database.InsertIfAbsent(ctx, n.db,
		"INSERT OR IGNORE INTO dim_company (company_id, company_name) VALUES (?, ?)",
		company.CompanyID, company.Name); err != nil {
		return err
	}
	if _, err := database.InsertIfAbsent(ctx, n.db,
		"INSERT OR IGNORE INTO dim_location (location_id, location_name, remote_flag) VALUES (?, ?, ?)",
		location.LocationID, location.Name, location.Remote); err != nil {
		return err
	}
	if _, err := database.InsertIfAbsent(ctx, n.db,
		"INSERT OR IGNORE INTO dim_role (role_id, role_family, seniority) VALUES (?, ?, ?)",
		role.RoleID, role.RoleFamily, role.Seniority); err != nil {
		return err
	}
	return nil
}

func (n *Normalizer) insertFact(ctx context.Context, p models.JobPosting) error {
	_, err := n.db.ExecContext(ctx, `
		INSERT INTO fact_job_posting
			(job_id, source, source_job_id, title, company_id, location_id, role_id,
			 posted_date, description, description_hash, url, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.JobID, p.Source, p.SourceJobID, nullIfEmpty(p.Title), p.CompanyID, p.LocationID, p.RoleID,
		nullIfEmpty(p.PostedDate), p.Description, p.DescriptionHash, nullIfEmpty(p.URL), p.InsertedAt)
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
