package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openDiaryDB creates a table with the same per-day uniqueness rule as the
// real entries table.
func openDiaryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE days (
		id    TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		day   TEXT NOT NULL,
		UNIQUE (owner, day)
	)`)
	require.NoError(t, err)
	return db
}

func days(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM days`).Scan(&n))
	return n
}

func insertDay(ctx context.Context, tx DBTX, id, owner, day string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO days (id, owner, day) VALUES (?, ?, ?)`, id, owner, day)
	return err
}

func TestWithTx_CommitsAllWrites(t *testing.T) {
	db := openDiaryDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := insertDay(ctx, tx, "e1", "u1", "2025-01-01"); err != nil {
			return err
		}
		return insertDay(ctx, tx, "e2", "u1", "2025-01-02")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, days(t, db))
}

func TestWithTx_UniqueViolationRollsBackEarlierWrites(t *testing.T) {
	db := openDiaryDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := insertDay(ctx, tx, "e1", "u1", "2025-01-01"); err != nil {
			return err
		}
		return insertDay(ctx, tx, "e2", "u1", "2025-01-01")
	})
	require.Error(t, err)
	assert.Equal(t, 0, days(t, db))
}

func TestWithTx_RollsBackAndRepanics(t *testing.T) {
	db := openDiaryDB(t)

	assert.PanicsWithValue(t, "half way", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertDay(ctx, tx, "e1", "u1", "2025-01-01"))
			panic("half way")
		})
	})
	assert.Equal(t, 0, days(t, db))
}

func TestWithTx_BeginFails(t *testing.T) {
	db := openDiaryDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}

func TestWithTx_CommitAndRollbackErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.EqualError(t, err, "commit tx: disk full")

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("conn reset"))

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "rollback: conn reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpectOneRow(t *testing.T) {
	require.NoError(t, ExpectOneRow(sqlmock.NewResult(0, 1)))
	require.ErrorIs(t, ExpectOneRow(sqlmock.NewResult(0, 0)), common.ErrorNotFound)

	err := ExpectOneRow(sqlmock.NewResult(0, 3))
	require.EqualError(t, err, "unexpected rows affected: 3")

	err = ExpectOneRow(sqlmock.NewErrorResult(errors.New("rows-err")))
	require.ErrorContains(t, err, "rows affected error: rows-err")
}

func TestWithTx_MissingRowInsideTx(t *testing.T) {
	db := openDiaryDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE days SET day = '2025-02-02' WHERE id = 'nope'`)
		if err != nil {
			return err
		}
		return ExpectOneRow(res)
	})
	require.ErrorIs(t, err, common.ErrorNotFound)
}
