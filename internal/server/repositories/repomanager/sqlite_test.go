package repomanager

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteRunMigrations_CreatesSchema(t *testing.T) {
	db, err := sql.Open(DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := &SQLiteRepositoryManager{}
	ctx := context.Background()
	require.NoError(t, m.RunMigrations(ctx, db))
	// second run is a no-op
	require.NoError(t, m.RunMigrations(ctx, db))

	v, err := m.MigrationVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n))
	require.Zero(t, n)
}
