package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"github.com/dmitrijs2005/kidsgram/internal/server/auth"
	"github.com/dmitrijs2005/kidsgram/internal/server/diary"
	"github.com/dmitrijs2005/kidsgram/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const defaultRecent = 10

func (s *Server) repo(r *http.Request) *diary.Repository {
	owner, _ := auth.OwnerFrom(r.Context())
	return s.sessions.Get(owner)
}

// loaded fills the session cache on the first view request.
func loaded(ctx context.Context, repo *diary.Repository) error {
	if repo.Loaded() {
		return nil
	}
	_, err := repo.List(ctx)
	return err
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo(r).List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleFindByDate(w http.ResponseWriter, r *http.Request) {
	date, err := models.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	e, ok := s.repo(r).FindByDate(r.Context(), date)
	if !ok {
		s.fail(w, r, fmt.Errorf("entry for %s: %w", date, common.ErrorNotFound))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleFindByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, ok := s.repo(r).FindByID(r.Context(), id)
	if !ok {
		s.fail(w, r, fmt.Errorf("entry %s: %w", id, common.ErrorNotFound))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleMedia redirects to a short-lived download link for the entry's
// photo or audio clip.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := models.MediaKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		s.fail(w, r, fmt.Errorf("%w: unknown media kind %q", common.ErrorValidation, kind))
		return
	}

	repo := s.repo(r)
	e, ok := repo.FindByID(r.Context(), id)
	if !ok {
		s.fail(w, r, fmt.Errorf("entry %s: %w", id, common.ErrorNotFound))
		return
	}

	ref := e.PhotoRef
	if kind == models.MediaAudio {
		ref = e.AudioRef
	}
	if ref == nil {
		s.fail(w, r, fmt.Errorf("%s of entry %s: %w", kind, id, common.ErrorNotFound))
		return
	}

	path, err := s.media.PathFromURL(*ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !kind.OwnedBy(path, repo.Owner()) {
		s.logger.Warn(r.Context(), "entry references media outside the owner's folder", "id", id, "path", path)
		s.fail(w, r, fmt.Errorf("%s of entry %s: %w", kind, id, common.ErrorNotFound))
		return
	}
	link, err := s.media.PresignGet(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var body saveRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	req, err := body.toDiary(replace)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := s.repo(r).Save(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saveResponse{ID: id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	ch, err := body.toChanges()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	e, err := s.repo(r).Update(r.Context(), chi.URLParam(r, "id"), ch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := s.repo(r).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.MediaErr != nil {
		s.logger.Warn(r.Context(), "entry deleted with orphaned media", "id", res.ID, "orphaned", res.Orphaned, "error", res.MediaErr)
	}
	writeJSON(w, http.StatusOK, deleteResponse{ID: res.ID, Orphaned: res.Orphaned})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	repo := s.repo(r)
	if err := loaded(r.Context(), repo); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.Stats())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil {
		s.fail(w, r, fmt.Errorf("%w: year and month must be numbers", common.ErrorValidation))
		return
	}

	repo := s.repo(r)
	if err := loaded(r.Context(), repo); err != nil {
		s.fail(w, r, err)
		return
	}

	days, err := repo.Month(year, time.Month(month))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	repo := s.repo(r)
	if err := loaded(r.Context(), repo); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.Gallery())
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, fmt.Errorf("%w: bad limit %q", common.ErrorValidation, v))
			return
		}
		limit = n
	}

	repo := s.repo(r)
	if err := loaded(r.Context(), repo); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.Recent(limit))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	s.sessions.Discard(owner)
	w.WriteHeader(http.StatusNoContent)
}
