package diary

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"go.uber.org/multierr"
)

func hasSource(src *models.MediaSource) bool {
	return src != nil && (src.IsUpload() || src.Ref != "")
}

func (r *Repository) checkUpload(kind models.MediaKind, src *models.MediaSource) error {
	if !src.IsUpload() {
		return nil
	}

	limit := r.limits.MaxPhotoBytes
	if kind == models.MediaAudio {
		limit = r.limits.MaxAudioBytes
	}
	if limit > 0 && len(src.Data) > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", common.ErrorValidation, kind, len(src.Data), limit)
	}
	return nil
}

// checkRef accepts a reference-only source when it names the media the
// field holds now. Nothing else may be linked into an entry.
func checkRef(kind models.MediaKind, src *models.MediaSource, stored *string) error {
	if src == nil || src.IsUpload() || src.Ref == "" {
		return nil
	}
	if stored == nil || *stored != src.Ref {
		return fmt.Errorf("%w: %s: %w", common.ErrorValidation, kind, common.ErrForeignMedia)
	}
	return nil
}

// upload stores new media for the owner's date and returns its URL and
// storage path.
func (r *Repository) upload(ctx context.Context, kind models.MediaKind, date string, src *models.MediaSource) (string, string, error) {
	path := kind.StoragePath(r.owner, date, r.now())

	contentType := src.ContentType
	if contentType == "" {
		contentType = kind.DefaultContentType()
	}

	url, err := r.media.Upload(ctx, path, src.Data, contentType)
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", kind, err)
	}
	return url, path, nil
}

// removeRef deletes the media behind a stored reference. It returns the
// path it tried, or the reference itself when no path could be derived.
// Paths outside the owner's folder for kind are never deleted; for those
// it returns "" and no error.
func (r *Repository) removeRef(ctx context.Context, kind models.MediaKind, ref string) (string, error) {
	path, err := r.media.PathFromURL(ref)
	if err != nil {
		r.log.Warn(ctx, "cannot resolve media reference", "ref", ref, "error", err)
		return ref, err
	}
	if !kind.OwnedBy(path, r.owner) {
		r.log.Error(ctx, "refusing to delete media outside the owner's folder", "kind", kind, "path", path)
		return "", nil
	}
	if err := r.media.Delete(ctx, path); err != nil {
		r.log.Warn(ctx, "media delete failed", "path", path, "error", err)
		return path, fmt.Errorf("delete %s: %w", path, err)
	}
	return path, nil
}

// discard deletes media uploaded by a failed call. It never stops early.
func (r *Repository) discard(ctx context.Context, paths []string) (failed []string, err error) {
	for _, p := range paths {
		if derr := r.media.Delete(ctx, p); derr != nil {
			r.log.Warn(ctx, "cleanup of uploaded media failed", "path", p, "error", derr)
			failed = append(failed, p)
			err = multierr.Append(err, fmt.Errorf("delete %s: %w", p, derr))
		}
	}
	return failed, err
}

// abort compensates a failed write. dangling lists media that was already
// deleted while the document still points at it.
func (r *Repository) abort(ctx context.Context, op string, cause error, uploaded, dangling []string) *WriteError {
	failed, cleanupErr := r.discard(ctx, uploaded)

	we := &WriteError{
		Op:       op,
		Err:      cause,
		Cleanup:  cleanupErr,
		Orphaned: append(failed, dangling...),
	}

	if len(dangling) > 0 {
		r.log.Error(ctx, "document references deleted media", "op", op, "paths", dangling)
	}
	r.log.Error(ctx, "entry write failed", "op", op, "error", cause, "cleanup_error", cleanupErr)

	return we
}
