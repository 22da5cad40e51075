package diary

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"go.uber.org/multierr"
)

// DeleteResult reports media a successful delete could not remove.
type DeleteResult struct {
	ID       string
	Orphaned []string
	MediaErr error
}

// Delete removes the entry and its media. Media failures are tolerated and
// reported in the result; the document is always deleted.
func (r *Repository) Delete(ctx context.Context, id string) (DeleteResult, error) {
	res := DeleteResult{ID: id}

	current, unlock, err := r.lockEntry(ctx, id)
	if err != nil {
		return res, err
	}
	defer unlock()

	for _, m := range []struct {
		kind models.MediaKind
		ref  *string
	}{
		{models.MediaPhoto, current.PhotoRef},
		{models.MediaAudio, current.AudioRef},
	} {
		if m.ref == nil {
			continue
		}
		if path, err := r.removeRef(ctx, m.kind, *m.ref); err != nil {
			res.Orphaned = append(res.Orphaned, path)
			res.MediaErr = multierr.Append(res.MediaErr, err)
		}
	}

	if err := r.docs.Delete(ctx, id); err != nil {
		r.log.Error(ctx, "delete entry failed", "id", id, "error", err)
		return res, fmt.Errorf("delete entry %s: %w", id, err)
	}

	r.cacheRemove(id)
	r.log.Info(ctx, "entry deleted", "id", id, "date", current.Date, "orphaned", len(res.Orphaned))

	return res, nil
}
