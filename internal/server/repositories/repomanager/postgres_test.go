package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/entries"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNew_SelectsManagerByDriver(t *testing.T) {
	cases := map[string]string{
		"pgx":      DriverPostgres,
		"postgres": DriverPostgres,
		"sqlite":   DriverSQLite,
		"sqlite3":  DriverSQLite,
	}
	for in, want := range cases {
		m, err := New(in)
		if err != nil {
			t.Fatalf("New(%q) error: %v", in, err)
		}
		if m.Driver() != want {
			t.Fatalf("New(%q).Driver() = %q, want %q", in, m.Driver(), want)
		}
	}

	if _, err := New("mysql"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	pg := &PostgresRepositoryManager{}
	if _, ok := pg.Entries(db).(*entries.PostgresRepository); !ok {
		t.Fatal("postgres manager must vend PostgresRepository")
	}

	lite := &SQLiteRepositoryManager{}
	if _, ok := lite.Entries(db).(*entries.SQLiteRepository); !ok {
		t.Fatal("sqlite manager must vend SQLiteRepository")
	}
}

func TestRunMigrations_UsesDialectDir(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	if err := (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if gotDir != "postgres" {
		t.Fatalf("postgres dir = %q", gotDir)
	}

	if err := (&SQLiteRepositoryManager{}).RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if gotDir != "sqlite" {
		t.Fatalf("sqlite dir = %q", gotDir)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMigrationVersion(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseVersion
	gooseVersion = func(ctx context.Context, db *sql.DB) (int64, error) { return 1, nil }
	defer func() { gooseVersion = orig }()

	v, err := (&SQLiteRepositoryManager{}).MigrationVersion(context.Background(), db)
	if err != nil || v != 1 {
		t.Fatalf("MigrationVersion = %d, %v", v, err)
	}
}
