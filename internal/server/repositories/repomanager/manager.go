package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/dbx"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/entries"
	"github.com/pressly/goose/v3"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	// Driver is the database/sql driver name to open connections with.
	Driver() string
	RunMigrations(context.Context, *sql.DB) error
	MigrationVersion(context.Context, *sql.DB) (int64, error)
	Entries(db dbx.DBTX) entries.Repository
}

// New returns the manager for a driver name.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres, "postgres":
		return &PostgresRepositoryManager{}, nil
	case DriverSQLite, "sqlite3":
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseVersion is a seam for testing goose.GetDBVersionContext.
var gooseVersion = func(ctx context.Context, db *sql.DB) (int64, error) {
	return goose.GetDBVersionContext(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

func version(ctx context.Context, db *sql.DB, dialect goose.Dialect) (int64, error) {
	if err := goose.SetDialect(string(dialect)); err != nil {
		return 0, err
	}
	return gooseVersion(ctx, db)
}
