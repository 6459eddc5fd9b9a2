package main

import (
	"context"
	"flag"
	"log"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema/migrations"

	"go.uber.org/zap"
)

func main() {
	rollback := flag.Bool("rollback", false, "roll back the most recent applied migration instead of migrating up")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	db, err := database.New(ctx, database.Options{Path: cfg.WarehousePath}, logger)
	if err != nil {
		logger.Fatal("failed to open warehouse", zap.Error(err))
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), logger)

	if *rollback {
		if err := rollbackLatest(ctx, migrator); err != nil {
			logger.Fatal("rollback failed", zap.Error(err))
		}
		logger.Info("rollback complete")
		return
	}

	if err := migrator.ApplyAll(ctx, migrations.All); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("warehouse schema up to date", zap.String("path", cfg.WarehousePath))
}

func rollbackLatest(ctx context.Context, migrator *schema.Migrator) error {
	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	latest := -1
	for version := range applied {
		if version > latest {
			latest = version
		}
	}
	if latest < 0 {
		return nil
	}

	for _, migration := range migrations.All {
		if migration.Version == latest {
			return migrator.RollbackMigration(ctx, migration)
		}
	}
	return nil
}
