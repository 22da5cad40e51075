package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kidsgram/internal/dbx"
	"github.com/dmitrijs2005/kidsgram/internal/server/migrations"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/entries"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories for local runs.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Driver() string { return DriverSQLite }

func (m *SQLiteRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, goose.DialectSQLite3, migrations.SQLiteDir)
}

func (m *SQLiteRepositoryManager) MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	return version(ctx, db, goose.DialectSQLite3)
}
