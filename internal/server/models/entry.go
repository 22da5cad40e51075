// Package models defines the server-side diary data model shared by the
// document stores, the entry repository and the HTTP API.
package models

import (
	"strings"
	"time"
)

// Entry is one diary record. At most one Entry exists per (OwnerID, Date).
//
// The optional fields use nil for "not set". A nil PhotoRef means the entry
// has no photo; it never means "unchanged".
type Entry struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Date      string     `json:"date"`
	PhotoRef  *string    `json:"photo_ref,omitempty"`
	AudioRef  *string    `json:"audio_ref,omitempty"`
	Note      *string    `json:"note,omitempty"`
	Emotion   *Emotion   `json:"emotion,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// HasContent reports whether the entry carries a photo, an audio clip or a
// non-blank note. Entries without content are never stored.
func (e *Entry) HasContent() bool {
	return e.PhotoRef != nil || e.AudioRef != nil || (e.Note != nil && strings.TrimSpace(*e.Note) != "")
}

// Clone returns a deep copy, so callers can hand entries out of a cache
// without sharing the pointed-to values.
func (e Entry) Clone() Entry {
	e.PhotoRef = cloneRef(e.PhotoRef)
	e.AudioRef = cloneRef(e.AudioRef)
	e.Note = cloneRef(e.Note)
	e.Emotion = cloneRef(e.Emotion)
	e.UpdatedAt = cloneRef(e.UpdatedAt)
	return e
}

// Apply merges a patch into the entry using the same rules the document
// stores use: nil fields are left alone, Clear flags remove the field.
func (e *Entry) Apply(p EntryPatch) {
	if p.Date != nil {
		e.Date = *p.Date
	}

	e.PhotoRef = mergeRef(e.PhotoRef, p.PhotoRef, p.ClearPhoto)
	e.AudioRef = mergeRef(e.AudioRef, p.AudioRef, p.ClearAudio)
	e.Note = mergeRef(e.Note, p.Note, p.ClearNote)
	e.Emotion = mergeRef(e.Emotion, p.Emotion, p.ClearEmotion)
}

// EntryPatch is a partial document write. A nil field leaves the stored
// value untouched; a Clear flag removes it. Setting a field and its Clear
// flag together is resolved in favour of the new value.
type EntryPatch struct {
	Date     *string
	PhotoRef *string
	AudioRef *string
	Note     *string
	Emotion  *Emotion

	ClearPhoto   bool
	ClearAudio   bool
	ClearNote    bool
	ClearEmotion bool
}

// IsEmpty reports whether applying the patch would change nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Date == nil && p.PhotoRef == nil && p.AudioRef == nil && p.Note == nil && p.Emotion == nil &&
		!p.ClearPhoto && !p.ClearAudio && !p.ClearNote && !p.ClearEmotion
}

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}

func cloneRef[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Ref(*p)
}

func mergeRef[T any](current, next *T, clear bool) *T {
	switch {
	case next != nil:
		return Ref(*next)
	case clear:
		return nil
	default:
		return current
	}
}
