package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/diary"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// mediaPayload is either new bytes, base64 encoded in JSON, or the
// reference the field already holds, which keeps it as is.
type mediaPayload struct {
	Ref         string `json:"ref,omitempty"`
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (m *mediaPayload) source() *models.MediaSource {
	if m == nil {
		return nil
	}
	return &models.MediaSource{Ref: m.Ref, Data: m.Data, ContentType: m.ContentType}
}

type saveRequest struct {
	Date    string        `json:"date"`
	Photo   *mediaPayload `json:"photo,omitempty"`
	Audio   *mediaPayload `json:"audio,omitempty"`
	Note    *string       `json:"note,omitempty"`
	Emotion *string       `json:"emotion,omitempty"`
}

func (req saveRequest) toDiary(replace bool) (diary.SaveRequest, error) {
	emotion, err := parseEmotion(req.Emotion)
	if err != nil {
		return diary.SaveRequest{}, err
	}

	out := diary.SaveRequest{
		Date:    req.Date,
		Photo:   req.Photo.source(),
		Audio:   req.Audio.source(),
		Note:    req.Note,
		Emotion: emotion,
	}
	if replace {
		out.OnConflict = diary.ConflictReplace
	}
	return out, nil
}

type saveResponse struct {
	ID string `json:"id"`
}

// updateRequest is a partial update. Clear names fields to remove:
// "photo", "audio", "note" or "emotion".
type updateRequest struct {
	Date    *string       `json:"date,omitempty"`
	Photo   *mediaPayload `json:"photo,omitempty"`
	Audio   *mediaPayload `json:"audio,omitempty"`
	Note    *string       `json:"note,omitempty"`
	Emotion *string       `json:"emotion,omitempty"`
	Clear   []string      `json:"clear,omitempty"`
}

func (req updateRequest) toChanges() (diary.Changes, error) {
	emotion, err := parseEmotion(req.Emotion)
	if err != nil {
		return diary.Changes{}, err
	}

	ch := diary.Changes{
		Date:    req.Date,
		Photo:   req.Photo.source(),
		Audio:   req.Audio.source(),
		Note:    req.Note,
		Emotion: emotion,
	}
	for _, f := range req.Clear {
		switch f {
		case "photo":
			ch.ClearPhoto = true
		case "audio":
			ch.ClearAudio = true
		case "note":
			ch.ClearNote = true
		case "emotion":
			ch.ClearEmotion = true
		default:
			return diary.Changes{}, fmt.Errorf("%w: cannot clear %q", common.ErrorValidation, f)
		}
	}
	return ch, nil
}

type deleteResponse struct {
	ID       string   `json:"id"`
	Orphaned []string `json:"orphaned,omitempty"`
}

func parseEmotion(s *string) (*models.Emotion, error) {
	if s == nil {
		return nil, nil
	}
	e, err := models.ParseEmotion(*s)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", common.ErrorValidation, err)
	}
	return nil
}
