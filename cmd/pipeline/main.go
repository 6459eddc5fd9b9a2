package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache/memory"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/cache/redis"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/enrich"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/ingest"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/marts"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/normalize"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/pipeline"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/quality"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	db, err := database.New(context.Background(), database.Options{
		Path: cfg.WarehousePath,
	}, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func newConn(db *database.Database) *sql.DB {
	return db.Conn()
}

func newCache(lc fx.Lifecycle, cfg *config.Config) cache.Cache {
	opts := cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}

	var c cache.Cache
	if cfg.RedisAddr != "" {
		c = redis.New(opts)
	} else {
		c = memory.New(opts)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

func newLLMClient(cfg *config.Config, logger *zap.Logger) enrich.LLMClient {
	return enrich.NewOllamaClient(cfg, logger)
}

func newMigrator(conn *sql.DB, logger *zap.Logger) *schema.Migrator {
	return schema.NewMigrator(conn, logger)
}

func newEnricher(conn *sql.DB, llm enrich.LLMClient, c cache.Cache, cfg *config.Config, logger *zap.Logger) *enrich.Enricher {
	return enrich.NewEnricher(conn, llm, c, enrich.Options{
		UseLLM:   cfg.UseOllama,
		CacheTTL: cfg.CacheTTL,
	}, logger)
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	if cfg.OTELCollectorURL == "" {
		return
	}

	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, "job-ai-warehouse", cfg.OTELCollectorURL)
			if err != nil {
				// Tracing is observability, not a pipeline dependency.
				logger.Warn("failed to initialize tracing", zap.Error(err))
				return nil
			}
			shutdown = fn
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

func main() {
	var (
		runner *pipeline.Runner
		logger *zap.Logger
	)

	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newDatabase,
			newConn,
			newCache,
			newLLMClient,
			newMigrator,
			ingest.NewClients,
			ingest.NewIngestor,
			normalize.NewNormalizer,
			quality.NewChecker,
			newEnricher,
			marts.NewBuilder,
			pipeline.NewRunner,
		),
		fx.Invoke(registerTracing),
		fx.Populate(&runner, &logger),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatal(err)
	}

	_, runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline failed", zap.Error(runErr))
	}

	if err := app.Stop(ctx); err != nil {
		log.Fatal(err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
