// Package dbtest opens throwaway warehouse files for tests. Each call
// gets its own file under t.TempDir(), migrated to the current schema.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema/migrations"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// New returns a migrated warehouse connection that is closed and deleted
// when the test finishes.
func New(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{
		Path: filepath.Join(t.TempDir(), "warehouse.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	migrator := schema.NewMigrator(db.Conn(), zap.NewNop())
	require.NoError(t, migrator.ApplyAll(ctx, migrations.All))

	return db.Conn()
}
