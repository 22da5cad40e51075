package diary

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// Changes is a partial update. Nil fields are left untouched. A media
// source that only carries a Ref must name the stored reference and also
// leaves the field untouched. A blank Note clears the note.
type Changes struct {
	Date    *string
	Photo   *models.MediaSource
	Audio   *models.MediaSource
	Note    *string
	Emotion *models.Emotion

	ClearPhoto   bool
	ClearAudio   bool
	ClearNote    bool
	ClearEmotion bool
}

type mediaAction int

const (
	mediaKeep mediaAction = iota
	mediaUpload
	mediaClear
)

type mediaPlan struct {
	kind   models.MediaKind
	action mediaAction
	old    *string
	src    *models.MediaSource
}

func planMedia(kind models.MediaKind, old *string, src *models.MediaSource, clear bool) mediaPlan {
	p := mediaPlan{kind: kind, old: old, src: src}
	switch {
	case src.IsUpload():
		p.action = mediaUpload
	case hasSource(src):
		// checkRef already tied the reference to old
	case clear && old != nil:
		p.action = mediaClear
	}
	return p
}

// Update applies changes to the owner's entry and returns the stored
// result. Replaced media is deleted before the new media is uploaded.
func (r *Repository) Update(ctx context.Context, id string, ch Changes) (*models.Entry, error) {
	if r.owner == "" {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, common.ErrorUnauthorized)
	}
	if err := r.checkUpload(models.MediaPhoto, ch.Photo); err != nil {
		return nil, err
	}
	if err := r.checkUpload(models.MediaAudio, ch.Audio); err != nil {
		return nil, err
	}
	if err := checkEmotion(ch.Emotion); err != nil {
		return nil, err
	}

	var newDate string
	if ch.Date != nil {
		d, err := models.NormalizeDate(*ch.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
		newDate = d
	}

	var extra []string
	if newDate != "" {
		extra = append(extra, dateKey(r.owner, newDate))
	}
	current, unlock, err := r.lockEntry(ctx, id, extra...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := checkRef(models.MediaPhoto, ch.Photo, current.PhotoRef); err != nil {
		return nil, err
	}
	if err := checkRef(models.MediaAudio, ch.Audio, current.AudioRef); err != nil {
		return nil, err
	}

	var patch models.EntryPatch

	if newDate != "" && newDate != current.Date {
		other, err := r.docs.FindByDate(ctx, r.owner, newDate)
		switch {
		case err == nil && other.ID != id:
			return nil, &ConflictError{Date: newDate, ExistingID: other.ID}
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("check existing entry for %s: %w", newDate, err)
		}
		patch.Date = &newDate
	}

	switch {
	case ch.Note != nil:
		if n := trimmedNote(ch.Note); n != nil {
			if current.Note == nil || *current.Note != *n {
				patch.Note = n
			}
		} else {
			patch.ClearNote = current.Note != nil
		}
	case ch.ClearNote:
		patch.ClearNote = current.Note != nil
	}

	switch {
	case ch.Emotion != nil:
		if current.Emotion == nil || *current.Emotion != *ch.Emotion {
			patch.Emotion = cloneEmotion(ch.Emotion)
		}
	case ch.ClearEmotion:
		patch.ClearEmotion = current.Emotion != nil
	}

	plans := []mediaPlan{
		planMedia(models.MediaPhoto, current.PhotoRef, ch.Photo, ch.ClearPhoto),
		planMedia(models.MediaAudio, current.AudioRef, ch.Audio, ch.ClearAudio),
	}

	if patch.IsEmpty() && plans[0].action == mediaKeep && plans[1].action == mediaKeep {
		return current, nil
	}

	preview := current.Clone()
	preview.Apply(patch)
	for _, p := range plans {
		ref := previewRef(p)
		if p.kind == models.MediaPhoto {
			preview.PhotoRef = ref
		} else {
			preview.AudioRef = ref
		}
	}
	if !preview.HasContent() {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, common.ErrEmptyEntry)
	}

	date := current.Date
	if patch.Date != nil {
		date = *patch.Date
	}

	var uploaded, removed []string
	for _, p := range plans {
		if p.action == mediaKeep {
			continue
		}

		if p.old != nil {
			if path, err := r.removeRef(ctx, p.kind, *p.old); err == nil && path != "" {
				removed = append(removed, path)
			}
		}

		var ref *string
		if p.action == mediaUpload {
			url, path, err := r.upload(ctx, p.kind, date, p.src)
			if err != nil {
				return nil, r.abort(ctx, "update", err, uploaded, removed)
			}
			uploaded = append(uploaded, path)
			ref = &url
		}

		if p.kind == models.MediaPhoto {
			patch.PhotoRef, patch.ClearPhoto = ref, ref == nil
		} else {
			patch.AudioRef, patch.ClearAudio = ref, ref == nil
		}
	}

	updated, err := r.docs.Update(ctx, id, patch)
	if err != nil {
		return nil, r.abort(ctx, "update", err, uploaded, removed)
	}

	r.cacheReplace(*updated)
	r.log.Info(ctx, "entry updated", "id", id, "date", updated.Date)

	return updated, nil
}

// previewRef is the reference a plan leaves in place, with a placeholder
// for media not uploaded yet.
func previewRef(p mediaPlan) *string {
	switch p.action {
	case mediaUpload:
		return models.Ref("pending")
	case mediaClear:
		return nil
	default:
		return p.old
	}
}
