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
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new entry. The id is generated when empty and created_at
// is assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO entries (id, owner_id, entry_date, photo_ref, audio_ref, note, emotion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.OwnerID, entry.Date,
		nullable(entry.PhotoRef), nullable(entry.AudioRef), nullable(entry.Note), nullable(entry.Emotion),
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", pgError(err))
	}

	return nil
}

// Update writes only the fields present in the patch and stamps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.EntryPatch) error {
	cols := patchColumns(patch)
	cols = append(cols, column{"updated_at", time.Now().UTC()})

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, i+1))
		args = append(args, c.value)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE entries SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", pgError(err))
	}

	return dbx.ExpectOneRow(res)
}

// Delete removes the entry with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return dbx.ExpectOneRow(res)
}

// Get returns the entry with the given id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries WHERE id = $1`
	return r.one(ctx, query, id)
}

// FindByDate returns the owner's entry for a calendar date.
func (r *PostgresRepository) FindByDate(ctx context.Context, ownerID, date string) (*models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries WHERE owner_id = $1 AND entry_date = $2`
	return r.one(ctx, query, ownerID, date)
}

// ListByOwner returns all entries of an owner, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []*models.Entry{}
	for rows.Next() {
		e, err := scanPostgres(rows)
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

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	e, err := scanPostgres(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgres(row rowScanner) (*models.Entry, error) {
	var (
		e                       models.Entry
		photo, audio, note, emo sql.NullString
		updatedAt               sql.NullTime
	)

	err := row.Scan(&e.ID, &e.OwnerID, &e.Date, &photo, &audio, &note, &emo, &e.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.PhotoRef = refFromNull(photo)
	e.AudioRef = refFromNull(audio)
	e.Note = refFromNull(note)
	e.Emotion = emotionFromNull(emo)
	if updatedAt.Valid {
		e.UpdatedAt = models.Ref(updatedAt.Time)
	}

	return &e, nil
}

// pgError maps a unique violation on (owner_id, entry_date) to ErrConflict.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
