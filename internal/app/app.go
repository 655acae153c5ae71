// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	beepengine "github.com/tejashwikalptaru/offtune/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/offtune/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/offtune/internal/adapter/catalog/sqlite"
	"github.com/tejashwikalptaru/offtune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/offtune/internal/backend"
	"github.com/tejashwikalptaru/offtune/internal/config"
	"github.com/tejashwikalptaru/offtune/internal/logger"
	"github.com/tejashwikalptaru/offtune/internal/media"
	"github.com/tejashwikalptaru/offtune/internal/ports"
	"github.com/tejashwikalptaru/offtune/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	logger *slog.Logger
	cfg    config.Config

	// Infrastructure
	eventBus    ports.EventBus
	audioEngine ports.AudioEngine
	repo        ports.SongRepository
	mediaStore  ports.MediaStore
	backend     ports.Backend

	// Services
	catalog *service.CatalogService
	session *service.SessionService
	acquire *service.AcquireService
	stems   *service.StemsService
	lyrics  *service.LyricsService
}

// Options tweaks the wiring; the zero value is production.
type Options struct {
	// UseMockAudio swaps the real playback engine for the in-memory one.
	UseMockAudio bool
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg config.Config, opts Options) (*Application, error) {
	app := &Application{cfg: cfg}

	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("data_dir", cfg.DataDir),
		slog.String("backend_url", cfg.BackendURL))

	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	if opts.UseMockAudio {
		app.audioEngine = mock.NewEngine()
	} else {
		app.audioEngine = beepengine.NewEngine(app.logger.With(slog.String("component", "engine")))
	}

	repo, err := sqlite.NewStore(cfg.DatabasePath(), app.logger.With(slog.String("component", "catalog_store")))
	if err != nil {
		return nil, fmt.Errorf("create catalog store: %w", err)
	}
	app.repo = repo

	app.mediaStore = media.NewStore(cfg.MediaDir(), app.logger.With(slog.String("component", "media_store")))

	app.backend = backend.NewClient(backend.Config{
		BaseURL:    cfg.BackendURL,
		HTTPClient: &http.Client{},
		Logger:     app.logger.With(slog.String("component", "backend")),
	})

	app.catalog = service.NewCatalogService(app.repo, app.mediaStore, app.eventBus, app.logger.With(slog.String("service", "catalog")))
	app.session = service.NewSessionService(app.logger.With(slog.String("service", "session")), app.audioEngine, app.catalog, app.eventBus)
	app.acquire = service.NewAcquireService(
		app.logger.With(slog.String("service", "acquire")),
		app.backend, app.mediaStore, app.catalog, app.eventBus,
		service.AcquireConfig{
			Timeout:      cfg.AcquireTimeout,
			PollInterval: cfg.ProgressPollInterval,
		})
	app.stems = service.NewStemsService(
		app.logger.With(slog.String("service", "stems")),
		app.backend, app.mediaStore, app.catalog, app.eventBus,
		service.StemConfig{
			PollInterval:        cfg.StemPollInterval,
			ResultRetryInterval: cfg.StemResultRetryInterval,
			ResultRetryCount:    cfg.StemResultRetryCount,
		})
	app.lyrics = service.NewLyricsService(app.logger.With(slog.String("service", "lyrics")), app.backend, app.catalog)

	if interval := cfg.PositionUpdateInterval; interval > 0 {
		app.session.SetUpdateInterval(interval)
	}

	return app, nil
}

// Initialize prepares storage and loads the catalog.
func (a *Application) Initialize(ctx context.Context) error {
	return a.catalog.Initialize(ctx)
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Catalog returns the catalog service.
func (a *Application) Catalog() *service.CatalogService { return a.catalog }

// Session returns the player session service.
func (a *Application) Session() *service.SessionService { return a.session }

// Acquire returns the acquisition service.
func (a *Application) Acquire() *service.AcquireService { return a.acquire }

// Stems returns the stem workflow service.
func (a *Application) Stems() *service.StemsService { return a.stems }

// Lyrics returns the lyrics service.
func (a *Application) Lyrics() *service.LyricsService { return a.lyrics }

// Shutdown tears everything down in reverse dependency order.
func (a *Application) Shutdown() error {
	a.logger.Info("shutting down")

	var firstErr error
	if err := a.session.Shutdown(); err != nil {
		firstErr = err
		a.logger.Warn("session shutdown failed", slog.Any("error", err))
	}
	if err := a.audioEngine.Close(); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		a.logger.Warn("audio engine close failed", slog.Any("error", err))
	}
	if err := a.catalog.Close(); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		a.logger.Warn("catalog close failed", slog.Any("error", err))
	}
	if err := a.eventBus.Close(); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		a.logger.Warn("event bus close failed", slog.Any("error", err))
	}
	return firstErr
}
