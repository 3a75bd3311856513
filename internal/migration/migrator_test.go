package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/migration"
	"github.com/Additional-Code/sketchbook/internal/testutil"
)

func tableCount(t *testing.T, db *bun.DB) int {
	t.Helper()
	var count int
	err := db.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sketches'").Scan(context.Background(), &count)
	require.NoError(t, err)
	return count
}

func TestMigrator_UpDown(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	assert.Equal(t, 1, tableCount(t, db))

	mig, err := migration.NewForDB("sqlite", db, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, mig.Up(ctx), "re-applying is a no-op")

	status, err := mig.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, int64(1), status[0].Version)
	assert.True(t, status[0].Applied)

	require.NoError(t, mig.Down(ctx, 5, false), "rolling back past the first migration stops quietly")
	assert.Equal(t, 0, tableCount(t, db))

	require.NoError(t, mig.Up(ctx))
	require.NoError(t, mig.Down(ctx, 0, true))
	assert.Equal(t, 0, tableCount(t, db))
}

func TestNewForDB_Errors(t *testing.T) {
	_, err := migration.NewForDB("oracle", nil, nil)
	assert.Error(t, err)

	_, err = migration.NewForDB("sqlite", nil, nil)
	assert.Error(t, err)
}
