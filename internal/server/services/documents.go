// Package services contains server-side business logic that sits between
// the entry repository and the SQL document stores.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kidsgram/internal/dbx"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/repomanager"
)

// DocumentService exposes the entries table as a document store. Patch
// writes run in a transaction together with the read-back of the row, so
// callers always see the stored state including updated_at.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

// Create stores a new entry and fills its ID and CreatedAt.
func (s *DocumentService) Create(ctx context.Context, e *models.Entry) error {
	return s.repomanager.Entries(s.db).Create(ctx, e)
}

// Update applies a patch and returns the entry as stored afterwards.
func (s *DocumentService) Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error) {
	var updated *models.Entry

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		if err := repo.Update(ctx, id, patch); err != nil {
			return err
		}
		e, err := repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("read back entry %s: %w", id, err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Entries(s.db).Delete(ctx, id)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).Get(ctx, id)
}

func (s *DocumentService) FindByDate(ctx context.Context, ownerID, date string) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).FindByDate(ctx, ownerID, date)
}

func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	return s.repomanager.Entries(s.db).ListByOwner(ctx, ownerID)
}
