package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind names the two kinds of blob an entry can reference.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaAudio MediaKind = "audio"
)

var mediaLayout = map[MediaKind]struct {
	prefix      string
	ext         string
	contentType string
}{
	MediaPhoto: {prefix: "photos", ext: ".jpg", contentType: "image/jpeg"},
	MediaAudio: {prefix: "audio", ext: ".m4a", contentType: "audio/m4a"},
}

func (k MediaKind) Valid() bool {
	_, ok := mediaLayout[k]
	return ok
}

// DefaultContentType is used when an upload does not state its own type.
func (k MediaKind) DefaultContentType() string {
	return mediaLayout[k].contentType
}

// StoragePath builds the blob path for a new upload, keyed by owner and date:
//
//	photos/{owner}/{date}_{unixMillis}.jpg
//	audio/{owner}/{date}_{unixMillis}.m4a
func (k MediaKind) StoragePath(ownerID, date string, now time.Time) string {
	l := mediaLayout[k]
	return fmt.Sprintf("%s/%s/%s_%d%s", l.prefix, ownerID, date, now.UnixMilli(), l.ext)
}

// OwnedBy reports whether path lies under the owner's folder for this kind.
func (k MediaKind) OwnedBy(path, ownerID string) bool {
	l, ok := mediaLayout[k]
	if !ok || ownerID == "" {
		return false
	}
	return strings.HasPrefix(path, l.prefix+"/"+ownerID+"/")
}

// MediaSource describes the desired media for an entry field.
//
// Ref names media that is already stored and must equal the reference
// the entry field holds now; Data carries new bytes to upload. When both
// are set Data wins.
type MediaSource struct {
	Ref         string
	Data        []byte
	ContentType string
}

// IsUpload reports whether the source carries new bytes.
func (m *MediaSource) IsUpload() bool {
	return m != nil && len(m.Data) > 0
}
