package diary

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// Stats are totals over the cached entries for the home dashboard.
type Stats struct {
	Total     int                    `json:"total"`
	WithPhoto int                    `json:"with_photo"`
	WithAudio int                    `json:"with_audio"`
	WithNote  int                    `json:"with_note"`
	Emotions  map[models.Emotion]int `json:"emotions"`
}

// DayCell is one day of the calendar view.
type DayCell struct {
	Date     string          `json:"date"`
	Day      int             `json:"day"`
	EntryID  string          `json:"entry_id,omitempty"`
	HasEntry bool            `json:"has_entry"`
	HasPhoto bool            `json:"has_photo"`
	HasAudio bool            `json:"has_audio"`
	HasNote  bool            `json:"has_note"`
	Emotion  *models.Emotion `json:"emotion,omitempty"`
}

// Stats totals the cached entries.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Emotions: make(map[models.Emotion]int, len(models.Emotions))}
	for _, e := range models.Emotions {
		s.Emotions[e] = 0
	}

	for i := range r.cache {
		e := &r.cache[i]
		s.Total++
		if e.PhotoRef != nil {
			s.WithPhoto++
		}
		if e.AudioRef != nil {
			s.WithAudio++
		}
		if e.Note != nil {
			s.WithNote++
		}
		if e.Emotion != nil {
			s.Emotions[*e.Emotion]++
		}
	}
	return s
}

// Month returns one cell per day of the month, marking days with entries.
func (r *Repository) Month(year int, month time.Month) ([]DayCell, error) {
	if month < time.January || month > time.December || year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: no such month %d-%02d", common.ErrorValidation, year, int(month))
	}

	r.mu.RLock()
	byDate := make(map[string]models.Entry, len(r.cache))
	for _, e := range r.cache {
		byDate[e.Date] = e
	}
	r.mu.RUnlock()

	dates := models.MonthDates(year, month)
	cells := make([]DayCell, len(dates))
	for i, d := range dates {
		c := DayCell{Date: d, Day: i + 1}
		if e, ok := byDate[d]; ok {
			c.EntryID = e.ID
			c.HasEntry = true
			c.HasPhoto = e.PhotoRef != nil
			c.HasAudio = e.AudioRef != nil
			c.HasNote = e.Note != nil
			c.Emotion = cloneEmotion(e.Emotion)
		}
		cells[i] = c
	}
	return cells, nil
}

// Gallery returns cached entries with a photo, newest first.
func (r *Repository) Gallery() []models.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Entry{}
	for i := range r.cache {
		if r.cache[i].PhotoRef != nil {
			out = append(out, r.cache[i].Clone())
		}
	}
	return out
}

// Recent returns up to n of the newest cached entries.
func (r *Repository) Recent(n int) []models.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n = max(0, min(n, len(r.cache)))
	out := make([]models.Entry, n)
	for i := range out {
		out[i] = r.cache[i].Clone()
	}
	return out
}
