package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// ConflictPolicy decides what Save does when the date is already taken.
type ConflictPolicy int

const (
	// ConflictReject returns a *ConflictError so the caller can confirm.
	ConflictReject ConflictPolicy = iota
	// ConflictReplace deletes the existing entry and its media first.
	ConflictReplace
)

// SaveRequest describes a new entry. Nil fields are left unset.
type SaveRequest struct {
	Date       string
	Photo      *models.MediaSource
	Audio      *models.MediaSource
	Note       *string
	Emotion    *models.Emotion
	OnConflict ConflictPolicy
}

// Save creates the owner's entry for req.Date and returns its id.
func (r *Repository) Save(ctx context.Context, req SaveRequest) (string, error) {
	if r.owner == "" {
		return "", fmt.Errorf("%w: %w", common.ErrorValidation, common.ErrorUnauthorized)
	}

	note := trimmedNote(req.Note)
	if !hasSource(req.Photo) && !hasSource(req.Audio) && note == nil {
		return "", fmt.Errorf("%w: %w", common.ErrorValidation, common.ErrEmptyEntry)
	}
	if err := r.checkUpload(models.MediaPhoto, req.Photo); err != nil {
		return "", err
	}
	if err := r.checkUpload(models.MediaAudio, req.Audio); err != nil {
		return "", err
	}
	if err := checkEmotion(req.Emotion); err != nil {
		return "", err
	}

	date, err := models.NormalizeDate(req.Date)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	unlock := r.lock(dateKey(r.owner, date))
	defer unlock()

	existing, err := r.docs.FindByDate(ctx, r.owner, date)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		existing = nil
	case err != nil:
		return "", fmt.Errorf("check existing entry for %s: %w", date, err)
	}

	if existing != nil && req.OnConflict != ConflictReplace {
		return "", &ConflictError{Date: date, ExistingID: existing.ID}
	}

	// a reference may only carry over media of the entry being replaced
	var storedPhoto, storedAudio *string
	if existing != nil {
		storedPhoto, storedAudio = existing.PhotoRef, existing.AudioRef
	}
	if err := checkRef(models.MediaPhoto, req.Photo, storedPhoto); err != nil {
		return "", err
	}
	if err := checkRef(models.MediaAudio, req.Audio, storedAudio); err != nil {
		return "", err
	}

	if existing != nil {
		if err := r.replace(ctx, existing, req); err != nil {
			return "", err
		}
	}

	entry := models.Entry{
		OwnerID: r.owner,
		Date:    date,
		Note:    note,
		Emotion: cloneEmotion(req.Emotion),
	}

	var uploaded []string
	for _, m := range []struct {
		kind models.MediaKind
		src  *models.MediaSource
		dst  **string
	}{
		{models.MediaPhoto, req.Photo, &entry.PhotoRef},
		{models.MediaAudio, req.Audio, &entry.AudioRef},
	} {
		if !hasSource(m.src) {
			continue
		}
		if !m.src.IsUpload() {
			*m.dst = models.Ref(m.src.Ref)
			continue
		}
		url, path, err := r.upload(ctx, m.kind, date, m.src)
		if err != nil {
			return "", r.abort(ctx, "save", err, uploaded, nil)
		}
		uploaded = append(uploaded, path)
		*m.dst = models.Ref(url)
	}

	if err := r.docs.Create(ctx, &entry); err != nil {
		return "", r.abort(ctx, "save", err, uploaded, nil)
	}

	r.cachePrepend(entry)
	r.log.Info(ctx, "entry saved", "id", entry.ID, "date", date)

	return entry.ID, nil
}

// replace removes an existing entry ahead of a save for the same date.
// Media the request reuses by reference is kept.
func (r *Repository) replace(ctx context.Context, existing *models.Entry, req SaveRequest) error {
	unlock := r.locks.Lock(idKey(existing.ID))
	defer unlock()

	var removed []string
	for _, m := range []struct {
		kind models.MediaKind
		ref  *string
		src  *models.MediaSource
	}{
		{models.MediaPhoto, existing.PhotoRef, req.Photo},
		{models.MediaAudio, existing.AudioRef, req.Audio},
	} {
		if m.ref == nil || (hasSource(m.src) && !m.src.IsUpload()) {
			continue
		}
		if path, err := r.removeRef(ctx, m.kind, *m.ref); err == nil && path != "" {
			removed = append(removed, path)
		}
	}

	if err := r.docs.Delete(ctx, existing.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return r.abort(ctx, "replace", err, nil, removed)
	}

	r.cacheRemove(existing.ID)
	r.log.Info(ctx, "entry replaced", "id", existing.ID, "date", existing.Date)

	return nil
}

func trimmedNote(note *string) *string {
	if note == nil {
		return nil
	}
	t := strings.TrimSpace(*note)
	if t == "" {
		return nil
	}
	return &t
}

func checkEmotion(e *models.Emotion) error {
	if e != nil && !e.Valid() {
		return fmt.Errorf("%w: unknown emotion %q", common.ErrorValidation, *e)
	}
	return nil
}

func cloneEmotion(e *models.Emotion) *models.Emotion {
	if e == nil {
		return nil
	}
	return models.Ref(*e)
}
