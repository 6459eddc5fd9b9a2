package ingest

import (
	"context"
	"database/sql"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/models"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/zap"
)

// SourceCounts is the per-source outcome of one ingestion pass.
type SourceCounts struct {
	New     int
	Skipped int
}

type Stats map[string]SourceCounts

func (s Stats) TotalNew() int {
	total := 0
	for _, c := range s {
		total += c.New
	}
	return total
}

// Ingestor appends fetched postings to the raw layer. The raw layer's
// unique (source, source_job_id) constraint makes every append idempotent.
type Ingestor struct {
	db      *sql.DB
	clients []Client
	logger  *zap.Logger
}

func NewIngestor(db *sql.DB, clients []Client, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		db:      db,
		clients: clients,
		logger:  logger,
	}
}

// IngestAll fetches every source and loads new postings into the raw
// layer. A source that fails to fetch contributes zero records; the other
// sources still run and the returned counts stay accurate.
func (i *Ingestor) IngestAll(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Ingestor.IngestAll")
	defer span.End()

	stats := make(Stats, len(i.clients))

	for _, client := range i.clients {
		records, err := client.Fetch(ctx)
		if err != nil {
			i.logger.Warn("source fetch failed, continuing with remaining sources",
				zap.String("source", client.Name()),
				zap.Error(err))
			records = nil
		}

		counts := SourceCounts{}
		for _, record := range records {
			inserted, err := i.insertRaw(ctx, client.Name(), record)
			if err != nil {
				i.logger.Error("failed to store raw posting",
					zap.String("source", client.Name()),
					zap.String("source_job_id", record.SourceJobID),
					zap.Error(err))
				continue
			}
			if inserted {
				counts.New++
			} else {
				counts.Skipped++
			}
		}
		stats[client.Name()] = counts

		i.logger.Info("source ingested",
			zap.String("source", client.Name()),
			zap.Int("new", counts.New),
			zap.Int("skipped", counts.Skipped))
	}

	span.SetAttributes(telemetry.Int("ingest.new", stats.TotalNew()))
	return stats, nil
}

func (i *Ingestor) insertRaw(ctx context.Context, source string, record Record) (bool, error) {
	raw := models.RawPosting{
		Source:      source,
		SourceJobID: record.SourceJobID,
		Payload:     record.Payload,
		IngestedAt:  time.Now().UTC(),
	}
	return database.InsertIfAbsent(ctx, i.db, `
		INSERT OR IGNORE INTO raw_job_postings (source, source_job_id, payload_json, ingested_at)
		VALUES (?, ?, ?, ?)
	`, raw.Source, raw.SourceJobID, string(raw.Payload), raw.IngestedAt)
}
