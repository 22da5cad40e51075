package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/dbx"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements entry storage for single-node deployments and
// tests. Timestamps are stored as unix microseconds.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Create(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	created := r.now().UTC().Truncate(time.Microsecond)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, owner_id, entry_date, photo_ref, audio_ref, note, emotion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Date,
		nullable(entry.PhotoRef), nullable(entry.AudioRef), nullable(entry.Note), nullable(entry.Emotion),
		created.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", sqliteError(err))
	}

	entry.CreatedAt = created
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, patch models.EntryPatch) error {
	cols := patchColumns(patch)
	cols = append(cols, column{"updated_at", r.now().UTC().UnixMicro()})

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c.name+" = ?")
		args = append(args, c.value)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", sqliteError(err))
	}

	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return dbx.ExpectOneRow(res)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	return r.one(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, id)
}

func (r *SQLiteRepository) FindByDate(ctx context.Context, ownerID, date string) (*models.Entry, error) {
	return r.one(ctx, `SELECT `+selectColumns+` FROM entries WHERE owner_id = ? AND entry_date = ?`, ownerID, date)
}

// ListByOwner returns all entries of an owner, newest first. Rows created
// within the same microsecond fall back to id order.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM entries WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []*models.Entry{}
	for rows.Next() {
		e, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) one(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	e, err := scanSQLite(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

func scanSQLite(row rowScanner) (*models.Entry, error) {
	var (
		e                       models.Entry
		photo, audio, note, emo sql.NullString
		created                 int64
		updated                 sql.NullInt64
	)

	err := row.Scan(&e.ID, &e.OwnerID, &e.Date, &photo, &audio, &note, &emo, &created, &updated)
	if err != nil {
		return nil, err
	}

	e.PhotoRef = refFromNull(photo)
	e.AudioRef = refFromNull(audio)
	e.Note = refFromNull(note)
	e.Emotion = emotionFromNull(emo)
	e.CreatedAt = time.UnixMicro(created).UTC()
	if updated.Valid {
		e.UpdatedAt = models.Ref(time.UnixMicro(updated.Int64).UTC())
	}

	return &e, nil
}

func sqliteError(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", common.ErrConflict, err.Error())
	}
	return err
}
