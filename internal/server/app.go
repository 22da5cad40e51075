// Package server wires the Kidsgram diary service together and runs it.
// It opens the document database, applies migrations, selects the media
// backend and token verifiers, and serves the HTTP API until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/kidsgram/internal/logging"
	"github.com/dmitrijs2005/kidsgram/internal/server/auth"
	"github.com/dmitrijs2005/kidsgram/internal/server/config"
	"github.com/dmitrijs2005/kidsgram/internal/server/diary"
	"github.com/dmitrijs2005/kidsgram/internal/server/httpapi"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/media"
	"github.com/dmitrijs2005/kidsgram/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kidsgram/internal/server/services"
)

// mediaStore is what the diary and the API need from a blob backend.
type mediaStore interface {
	diary.MediaStore
	httpapi.Presigner
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *diary.Sessions
	verifier auth.Verifier
	media    mediaStore
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	db, err := sql.Open(rm.Driver(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	store, err := newMediaStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("media init error: %w", err)
	}

	verifier, err := newVerifier(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth init error: %w", err)
	}

	sessions := diary.NewSessions(diary.Config{
		Documents: services.NewDocumentService(db, rm),
		Media:     store,
		Logger:    logger,
		Limits: diary.Limits{
			MaxPhotoBytes: c.MaxPhotoBytes,
			MaxAudioBytes: c.MaxAudioBytes,
		},
		IdleTimeout: c.SessionIdleTimeout,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: sessions,
		verifier: verifier,
		media:    store,
	}, nil
}

func newMediaStore(ctx context.Context, c *config.Config) (mediaStore, error) {
	if c.MediaBackend == config.MediaMemory {
		return media.NewMemoryStore("http://" + c.EndpointAddrHTTP), nil
	}
	return media.NewS3Store(ctx, media.S3Config{
		Region:        c.S3Region,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PresignExpiry: c.S3PresignExpiry,
	})
}

// newVerifier accepts the service's own HS256 tokens when a secret is set
// and OIDC ID tokens when an issuer is configured.
func newVerifier(ctx context.Context, c *config.Config) (auth.Verifier, error) {
	var chain auth.Chain
	if c.SecretKey != "" {
		chain = append(chain, auth.NewHMACVerifier([]byte(c.SecretKey)))
	}

	if c.OIDCIssuer != "" {
		v, err := auth.NewOIDCVerifier(ctx, c.OIDCIssuer, c.OIDCClientID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
	}

	return chain, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(httpapi.Config{
		Address:         app.config.EndpointAddrHTTP,
		ShutdownTimeout: app.config.ShutdownTimeout,
		Sessions:        app.sessions,
		Verifier:        app.verifier,
		Media:           app.media,
		Logger:          app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
