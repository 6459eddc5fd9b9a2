package schema_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/schema/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMigrator(t *testing.T) *schema.Migrator {
	t.Helper()
	db, err := database.New(context.Background(), database.Options{
		Path: filepath.Join(t.TempDir(), "warehouse.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return schema.NewMigrator(db.Conn(), zap.NewNop())
}

func TestApplyAll(t *testing.T) {
	m := newMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.ApplyAll(ctx, migrations.All))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrations.All))
	assert.Contains(t, applied, 1)
}

func TestApplyAllIdempotent(t *testing.T) {
	m := newMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.ApplyAll(ctx, migrations.All))
	require.NoError(t, m.ApplyAll(ctx, migrations.All))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrations.All))
}

func TestRollbackMigration(t *testing.T) {
	m := newMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.ApplyAll(ctx, migrations.All))
	require.NoError(t, m.RollbackMigration(ctx, migrations.CreateWarehouseTables))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.NotContains(t, applied, migrations.CreateWarehouseTables.Version)
}
