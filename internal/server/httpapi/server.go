// Package httpapi exposes the diary over a JSON HTTP API for the mobile
// client. Every /api route requires a bearer token; the token's owner
// selects the diary.Repository that serves the request.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/logging"
	"github.com/dmitrijs2005/kidsgram/internal/server/auth"
	"github.com/dmitrijs2005/kidsgram/internal/server/diary"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Presigner turns stored media references into download links.
type Presigner interface {
	PathFromURL(rawURL string) (string, error)
	PresignGet(ctx context.Context, path string) (string, error)
}

type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	Sessions        *diary.Sessions
	Verifier        auth.Verifier
	Media           Presigner
	Logger          logging.Logger
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	sessions        *diary.Sessions
	verifier        auth.Verifier
	media           Presigner
	logger          logging.Logger
}

func NewServer(c Config) *Server {
	l := c.Logger
	if l == nil {
		l = logging.NewNopLogger()
	}
	timeout := c.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		address:         c.Address,
		shutdownTimeout: timeout,
		sessions:        c.Sessions,
		verifier:        c.Verifier,
		media:           c.Media,
		logger:          l.With("module", "http_server"),
	}
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleSave)
			r.Get("/date/{date}", s.handleFindByDate)
			r.Get("/{id}", s.handleFindByID)
			r.Patch("/{id}", s.handleUpdate)
			r.Delete("/{id}", s.handleDelete)
			r.Get("/{id}/media/{kind}", s.handleMedia)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/calendar/{year}/{month}", s.handleCalendar)
		r.Get("/gallery", s.handleGallery)
		r.Get("/recent", s.handleRecent)
		r.Post("/logout", s.handleLogout)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
