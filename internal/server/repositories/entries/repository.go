// Package entries provides SQL-backed document stores for diary entries.
// Entries are keyed by an opaque id and queryable by owner and by date.
package entries

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// Repository is the document store contract used by the entry service.
//
// Get and FindByDate return common.ErrorNotFound when nothing matches.
// Create and Update return common.ErrConflict when the (owner, date)
// uniqueness constraint would be violated.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) error
	Update(ctx context.Context, id string, patch models.EntryPatch) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	FindByDate(ctx context.Context, ownerID, date string) (*models.Entry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error)
}

const selectColumns = `id, owner_id, entry_date, photo_ref, audio_ref, note, emotion, created_at, updated_at`

// column is one SET assignment of a patch write. A nil value stores NULL.
type column struct {
	name  string
	value any
}

// patchColumns lists the assignments a patch implies, in a stable order.
func patchColumns(p models.EntryPatch) []column {
	var cols []column

	if p.Date != nil {
		cols = append(cols, column{"entry_date", *p.Date})
	}
	cols = appendNullable(cols, "photo_ref", p.PhotoRef, p.ClearPhoto)
	cols = appendNullable(cols, "audio_ref", p.AudioRef, p.ClearAudio)
	cols = appendNullable(cols, "note", p.Note, p.ClearNote)
	cols = appendNullable(cols, "emotion", p.Emotion, p.ClearEmotion)

	return cols
}

func appendNullable[T ~string](cols []column, name string, v *T, clear bool) []column {
	switch {
	case v != nil:
		return append(cols, column{name, string(*v)})
	case clear:
		return append(cols, column{name, nil})
	default:
		return cols
	}
}

// nullable converts an optional string-like field into a driver value.
func nullable[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func refFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return models.Ref(ns.String)
}

func emotionFromNull(ns sql.NullString) *models.Emotion {
	if !ns.Valid {
		return nil
	}
	return models.Ref(models.Emotion(ns.String))
}
