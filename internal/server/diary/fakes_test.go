package diary

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
)

// memDocs is an in-memory DocumentStore with the same uniqueness rule as
// the SQL stores.
type memDocs struct {
	mu    sync.Mutex
	rows  map[string]models.Entry
	seq   int
	clock time.Time

	createErr error
	updateErr error
	deleteErr error
	getErr    error
	findErr   error
	listErr   error

	gets int
	// afterGet runs under the store's lock once a Get has read its row,
	// so it can change rows as a concurrent writer would.
	afterGet func(d *memDocs, id string, call int)
}

func newMemDocs() *memDocs {
	return &memDocs{
		rows:  map[string]models.Entry{},
		clock: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (d *memDocs) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *memDocs) taken(owner, date, except string) bool {
	for id, e := range d.rows {
		if id != except && e.OwnerID == owner && e.Date == date {
			return true
		}
	}
	return false
}

func (d *memDocs) Create(ctx context.Context, e *models.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return d.createErr
	}
	if d.taken(e.OwnerID, e.Date, "") {
		return common.ErrConflict
	}
	d.seq++
	e.ID = fmt.Sprintf("e%d", d.seq)
	e.CreatedAt = d.tick()
	d.rows[e.ID] = e.Clone()
	return nil
}

func (d *memDocs) Update(ctx context.Context, id string, p models.EntryPatch) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.updateErr != nil {
		return nil, d.updateErr
	}
	e, ok := d.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Date != nil && d.taken(e.OwnerID, *p.Date, id) {
		return nil, common.ErrConflict
	}
	e.Apply(p)
	e.UpdatedAt = models.Ref(d.tick())
	d.rows[id] = e
	out := e.Clone()
	return &out, nil
}

func (d *memDocs) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deleteErr != nil {
		return d.deleteErr
	}
	if _, ok := d.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(d.rows, id)
	return nil
}

func (d *memDocs) Get(ctx context.Context, id string) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.getErr != nil {
		return nil, d.getErr
	}
	e, ok := d.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := e.Clone()
	d.gets++
	if d.afterGet != nil {
		d.afterGet(d, id, d.gets)
	}
	return &out, nil
}

// moveRow changes a row's date in place. Callers hold d.mu.
func (d *memDocs) moveRow(id, date string) {
	e := d.rows[id]
	e.Date = date
	d.rows[id] = e
}

func (d *memDocs) FindByDate(ctx context.Context, owner, date string) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return nil, d.findErr
	}
	for _, e := range d.rows {
		if e.OwnerID == owner && e.Date == date {
			out := e.Clone()
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (d *memDocs) ListByOwner(ctx context.Context, owner string) ([]*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := []*models.Entry{}
	for _, e := range d.rows {
		if e.OwnerID == owner {
			c := e.Clone()
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *models.Entry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (d *memDocs) count(owner, date string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.rows {
		if e.OwnerID == owner && e.Date == date {
			n++
		}
	}
	return n
}

const mediaBase = "mem://kidsgram/"

// spyMedia records every call in order.
type spyMedia struct {
	mu      sync.Mutex
	objects map[string]string
	events  []string

	uploadErr   error
	failUploads string // path prefix that fails to upload
	deleteErr   error
}

func newSpyMedia() *spyMedia {
	return &spyMedia{objects: map[string]string{}}
}

func (m *spyMedia) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "upload "+path)
	if m.uploadErr != nil && strings.HasPrefix(path, m.failUploads) {
		return "", m.uploadErr
	}
	m.objects[path] = contentType
	return mediaBase + path, nil
}

func (m *spyMedia) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "delete "+path)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, path)
	return nil
}

func (m *spyMedia) PathFromURL(rawURL string) (string, error) {
	p, ok := strings.CutPrefix(rawURL, mediaBase)
	if !ok {
		return "", fmt.Errorf("foreign url %s", rawURL)
	}
	return p, nil
}

func (m *spyMedia) deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		if p, ok := strings.CutPrefix(e, "delete "); ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *spyMedia) log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

func (m *spyMedia) stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
