// Package database owns the embedded warehouse file. SQLite through the
// pure-Go modernc driver: no server, one file, safe to delete and rebuild
// by re-running the pipeline from scratch.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Options struct {
	Path string
}

type Database struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	// The pipeline is a sequential batch; a single connection also keeps
	// SQLite's writer locking out of the picture.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	logger.Info("warehouse opened", zap.String("path", opts.Path))

	return &Database{
		db:     db,
		logger: logger,
	}, nil
}

func (d *Database) Close() error {
	d.logger.Debug("closing warehouse")
	return d.db.Close()
}

func (d *Database) Conn() *sql.DB {
	return d.db
}
