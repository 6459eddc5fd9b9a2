package database

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertIfAbsent runs an INSERT OR IGNORE statement and reports whether a
// row was actually written. The uniqueness constraint on the target table
// makes this atomic; no separate existence check is needed.
func InsertIfAbsent(ctx context.Context, db *sql.DB, stmt string, args ...interface{}) (bool, error) {
	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("insert if absent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert if absent: rows affected: %w", err)
	}
	return n > 0, nil
}

// RebuildTable truncates table and refills it from insertSelect inside one
// transaction. Used only for the gold marts, which are full-refresh
// projections of the silver layer.
func RebuildTable(ctx context.Context, db *sql.DB, table string, insertSelect string, args ...interface{}) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("rebuild %s: begin: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("rebuild %s: truncate: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, insertSelect, args...); err != nil {
		return 0, fmt.Errorf("rebuild %s: reload: %w", table, err)
	}

	var count int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("rebuild %s: count: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("rebuild %s: commit: %w", table, err)
	}
	return count, nil
}
