// Package diary coordinates diary entries between the document store and
// the media store for one signed-in owner.
//
// A Repository keeps the owner's entries in memory, mirrored from the
// document store. Writes follow a fixed order: media uploads, then the
// document write, then the cache. Failed writes delete any media uploaded
// by the same call before the error is returned.
package diary

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/keylock"
	"github.com/dmitrijs2005/kidsgram/internal/logging"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// DocumentStore is the durable owner of entry records.
type DocumentStore interface {
	// Create stores e and fills its ID and CreatedAt.
	Create(ctx context.Context, e *models.Entry) error
	// Update applies patch and returns the stored result.
	Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	FindByDate(ctx context.Context, ownerID, date string) (*models.Entry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error)
}

// MediaStore holds photo and audio blobs.
type MediaStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PathFromURL(rawURL string) (string, error)
}

// Limits caps upload sizes in bytes. Zero disables a limit.
type Limits struct {
	MaxPhotoBytes int
	MaxAudioBytes int
}

// DefaultLimits match what the mobile client accepts.
var DefaultLimits = Limits{
	MaxPhotoBytes: 5 << 20,
	MaxAudioBytes: 2 << 20,
}

// Config carries the collaborators shared by every owner's Repository.
type Config struct {
	Documents DocumentStore
	Media     MediaStore
	Logger    logging.Logger
	Limits    Limits
	// Locks may be shared between repositories; nil gets a private one.
	Locks *keylock.Locker
	// IdleTimeout lets Sessions drop repositories of owners who stopped
	// making requests. Zero keeps them until logout.
	IdleTimeout time.Duration
}

// Repository is the entry API of a single owner session.
type Repository struct {
	owner  string
	docs   DocumentStore
	media  MediaStore
	log    logging.Logger
	limits Limits
	locks  *keylock.Locker
	now    func() time.Time

	mu     sync.RWMutex
	cache  []models.Entry
	loaded bool
}

// New returns an empty Repository for ownerID. Call List to fill its cache.
func New(ownerID string, cfg Config) *Repository {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = keylock.New()
	}

	return &Repository{
		owner:  ownerID,
		docs:   cfg.Documents,
		media:  cfg.Media,
		log:    log.With("module", "diary", "owner", ownerID),
		limits: cfg.Limits,
		locks:  locks,
		now:    time.Now,
	}
}

// Owner returns the id of the owner the repository serves.
func (r *Repository) Owner() string { return r.owner }

// Loaded reports whether List has filled the cache at least once.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// List fetches every entry of the owner, newest first, and replaces the
// cache. On failure the previous cache is kept and ErrEntriesUnavailable
// is returned.
func (r *Repository) List(ctx context.Context) ([]models.Entry, error) {
	list, err := r.docs.ListByOwner(ctx, r.owner)
	if err != nil {
		r.log.Error(ctx, "list entries failed", "error", err)
		return nil, common.ErrEntriesUnavailable
	}

	fresh := make([]models.Entry, 0, len(list))
	for _, e := range list {
		fresh = append(fresh, e.Clone())
	}

	r.mu.Lock()
	r.cache = fresh
	r.loaded = true
	r.mu.Unlock()

	return r.Entries(), nil
}

// Entries returns a copy of the cached entries.
func (r *Repository) Entries() []models.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Entry, len(r.cache))
	for i := range r.cache {
		out[i] = r.cache[i].Clone()
	}
	return out
}

// FindByDate returns the owner's entry for date. Lookup failures are logged
// and reported as absent.
func (r *Repository) FindByDate(ctx context.Context, date string) (*models.Entry, bool) {
	day, err := models.NormalizeDate(date)
	if err != nil {
		return nil, false
	}

	e, err := r.docs.FindByDate(ctx, r.owner, day)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			r.log.Error(ctx, "find entry by date failed", "date", day, "error", err)
		}
		return nil, false
	}
	return e, true
}

// FindByID returns the entry with id if it belongs to the owner. Lookup
// failures are logged and reported as absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Entry, bool) {
	if id == "" {
		return nil, false
	}

	e, err := r.docs.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			r.log.Error(ctx, "find entry by id failed", "id", id, "error", err)
		}
		return nil, false
	}
	if e.OwnerID != r.owner {
		return nil, false
	}
	return e, true
}

// load reads an entry for a write. Missing and foreign entries are
// ErrorNotFound, transport failures surface.
func (r *Repository) load(ctx context.Context, id string) (*models.Entry, error) {
	if id == "" {
		return nil, common.ErrorNotFound
	}
	e, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != r.owner {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func dateKey(owner, date string) string { return "d/" + owner + "/" + date }
func idKey(id string) string            { return "i/" + id }

// lock acquires keys in sorted order, so date keys always come before id
// keys and concurrent writers cannot deadlock.
func (r *Repository) lock(keys ...string) (unlock func()) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	unlocks := make([]func(), 0, len(keys))
	for _, k := range keys {
		unlocks = append(unlocks, r.locks.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// lockAttempts bounds how often lockEntry chases an entry whose date keeps
// moving under it.
const lockAttempts = 3

// lockEntry locks the entry's id, its current date and any extra keys, and
// returns the entry as read under those locks. The date key comes from an
// unlocked read, so when the reread shows another date the locks are
// dropped and taken again for the new one.
func (r *Repository) lockEntry(ctx context.Context, id string, extra ...string) (*models.Entry, func(), error) {
	current, err := r.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	for range lockAttempts {
		date := current.Date
		unlock := r.lock(append([]string{idKey(id), dateKey(r.owner, date)}, extra...)...)

		if current, err = r.load(ctx, id); err != nil {
			unlock()
			return nil, nil, err
		}
		if current.Date == date {
			return current, unlock, nil
		}

		unlock()
		r.log.Debug(ctx, "entry moved while locking, retrying", "id", id, "from", date, "to", current.Date)
	}

	return nil, nil, fmt.Errorf("%w: entry %s keeps changing date", common.ErrConflict, id)
}

func (r *Repository) cachePrepend(e models.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = slices.Insert(r.cache, 0, e.Clone())
}

func (r *Repository) cacheReplace(e models.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cache {
		if r.cache[i].ID == e.ID {
			r.cache[i] = e.Clone()
			return
		}
	}
}

func (r *Repository) cacheRemove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = slices.DeleteFunc(r.cache, func(e models.Entry) bool { return e.ID == id })
}
