package entries

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var entryColumns = []string{
	"id", "owner_id", "entry_date", "photo_ref", "audio_ref", "note", "emotion", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO entries .* RETURNING created_at`).
		WithArgs("e1", "u1", "2024-03-01", nil, nil, "first day", "happy").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	e := &models.Entry{
		ID:      "e1",
		OwnerID: "u1",
		Date:    "2024-03-01",
		Note:    models.Ref("first day"),
		Emotion: models.Ref(models.EmotionHappy),
	}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.CreatedAt.Equal(created) {
		t.Fatalf("created_at not filled: %v", e.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_GeneratesID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entries`).
		WithArgs(sqlmock.AnyArg(), "u1", "2024-03-01", "photos/u1/x.jpg", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	e := &models.Entry{OwnerID: "u1", Date: "2024-03-01", PhotoRef: models.Ref("photos/u1/x.jpg")}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestPostgresCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entries`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "entries_owner_date_key"})

	err := repo.Create(context.Background(), &models.Entry{ID: "e1", OwnerID: "u1", Date: "2024-03-01", Note: models.Ref("n")})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entries`).WillReturnError(errors.New("db is down"))

	err := repo.Create(context.Background(), &models.Entry{ID: "e1", OwnerID: "u1", Date: "2024-03-01"})
	if err == nil || !regexp.MustCompile(`failed to insert entry: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrConflict) {
		t.Fatalf("plain db error must not be a conflict")
	}
}

func TestPostgresUpdate_WritesOnlyPatchedColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.QuoteMeta(`UPDATE entries SET photo_ref = $1, note = $2, updated_at = $3 WHERE id = $4`)
	mock.ExpectExec(q).
		WithArgs(nil, "new note", sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "e1", models.EntryPatch{
		Note:       models.Ref("new note"),
		ClearPhoto: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE entries SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", models.EntryPatch{Note: models.Ref("x")})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestPostgresUpdate_DateCollision(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE entries SET entry_date = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("2024-03-02", sqlmock.AnyArg(), "e1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Update(context.Background(), "e1", models.EntryPatch{Date: models.Ref("2024-03-02")})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestPostgresUpdate_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE entries SET`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Update(context.Background(), "e1", models.EntryPatch{Note: models.Ref("x")})
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entries WHERE id = $1`)).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entries WHERE id = $1`)).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "e1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("second delete: want ErrorNotFound, got %v", err)
	}
}

func TestPostgresGet_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	rows := sqlmock.NewRows(entryColumns).
		AddRow("e1", "u1", "2024-03-01", "photos/u1/a.jpg", nil, "note", "calm", created, updated)

	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \$1`).
		WithArgs("e1").
		WillReturnRows(rows)

	e, err := repo.Get(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.PhotoRef == nil || *e.PhotoRef != "photos/u1/a.jpg" {
		t.Fatalf("photo ref: %+v", e.PhotoRef)
	}
	if e.AudioRef != nil {
		t.Fatalf("audio ref should be nil, got %v", *e.AudioRef)
	}
	if e.Emotion == nil || *e.Emotion != models.EmotionCalm {
		t.Fatalf("emotion: %+v", e.Emotion)
	}
	if e.UpdatedAt == nil || !e.UpdatedAt.Equal(updated) {
		t.Fatalf("updated_at: %+v", e.UpdatedAt)
	}
}

func TestPostgresGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(entryColumns))

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestPostgresFindByDate_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM entries WHERE owner_id = \$1 AND entry_date = \$2`).
		WithArgs("u1", "2024-03-01").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByDate(context.Background(), "u1", "2024-03-01")
	if err == nil || !regexp.MustCompile(`failed to select entry: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestPostgresListByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(entryColumns).
		AddRow("e2", "u1", "2024-03-02", nil, "audio/u1/b.m4a", nil, nil, now, nil).
		AddRow("e1", "u1", "2024-03-01", nil, nil, "hello", nil, now.Add(-time.Hour), nil)

	mock.ExpectQuery(`SELECT .* FROM entries WHERE owner_id = \$1 ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e1" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if got[0].AudioRef == nil || got[1].Note == nil || *got[1].Note != "hello" {
		t.Fatalf("optional fields not mapped: %+v %+v", got[0], got[1])
	}
}

func TestPostgresListByOwner_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(entryColumns).
		AddRow("e1", "u1", "2024-03-01", nil, nil, "a", nil, now, nil).
		AddRow("e2", "u1", "2024-03-02", nil, nil, "b", nil, now, nil).
		RowError(1, errors.New("row-err"))

	mock.ExpectQuery(`SELECT .* FROM entries WHERE owner_id = \$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	_, err := repo.ListByOwner(context.Background(), "u1")
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}

func TestPostgresListByOwner_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM entries WHERE owner_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(entryColumns))

	got, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}
