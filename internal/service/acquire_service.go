package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/media"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// minPayloadSize guards against the backend returning a truncated or
// empty conversion result.
const minPayloadSize = 100

// AcquireConfig tunes the acquisition pipeline.
type AcquireConfig struct {
	// Timeout bounds the whole acquisition including polling.
	Timeout time.Duration

	// PollInterval is how often progress is polled while converting.
	PollInterval time.Duration
}

// DefaultAcquireConfig matches the backend's pacing: poll every second,
// give up after 200s (the server hard-stops at 180s and answers 504).
func DefaultAcquireConfig() AcquireConfig {
	return AcquireConfig{
		Timeout:      200 * time.Second,
		PollInterval: time.Second,
	}
}

// AcquireService turns a remote source URL into a catalog song: it runs
// the backend conversion, polls progress for advisory events, validates
// and stores the returned audio, and registers the song.
type AcquireService struct {
	logger  *slog.Logger
	backend ports.Backend
	store   ports.MediaStore
	catalog *CatalogService
	bus     ports.EventBus
	cfg     AcquireConfig
}

// NewAcquireService creates a new acquisition service.
func NewAcquireService(
	logger *slog.Logger,
	backend ports.Backend,
	store ports.MediaStore,
	catalog *CatalogService,
	bus ports.EventBus,
	cfg AcquireConfig,
) *AcquireService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAcquireConfig().Timeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultAcquireConfig().PollInterval
	}
	return &AcquireService{
		logger:  logger,
		backend: backend,
		store:   store,
		catalog: catalog,
		bus:     bus,
		cfg:     cfg,
	}
}

// Acquire converts sourceURL into a locally stored song. It blocks until
// the conversion finishes, the configured timeout trips, or ctx is
// cancelled. Nothing is written to the catalog on any failure path.
func (s *AcquireService) Acquire(ctx context.Context, sourceURL string) (domain.Song, error) {
	if sourceURL == "" {
		return domain.Song{}, fmt.Errorf("acquire: source url is empty")
	}

	requestID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.logger.Info("acquisition started",
		slog.String("request_id", requestID),
		slog.String("url", sourceURL))

	stopPolling := s.startProgressPolling(ctx, requestID)
	result, err := s.backend.Convert(ctx, sourceURL, requestID)
	stopPolling()
	if err != nil {
		s.logger.Warn("conversion failed",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return domain.Song{}, err
	}

	if len(result.Audio) < minPayloadSize {
		return domain.Song{}, fmt.Errorf("%w: got %d bytes", domain.ErrInvalidPayload, len(result.Audio))
	}
	if ctx.Err() != nil {
		return domain.Song{}, ctx.Err()
	}

	song, err := s.buildSong(result)
	if err != nil {
		return domain.Song{}, err
	}

	// A cancellation that slipped in during the media write must not
	// leave a half-registered song
	if ctx.Err() != nil {
		if removeErr := s.store.RemoveSong(song.ID); removeErr != nil {
			s.logger.Warn("failed to clean up cancelled acquisition", slog.Any("error", removeErr))
		}
		return domain.Song{}, ctx.Err()
	}

	if err := s.catalog.Upsert(ctx, song); err != nil {
		return domain.Song{}, err
	}

	s.logger.Info("acquisition finished",
		slog.String("request_id", requestID),
		slog.String("song_id", song.ID),
		slog.String("title", song.Title))
	return song, nil
}

// buildSong writes the payload to media storage and assembles the song
// record from sniffed format plus embedded and server-provided metadata.
func (s *AcquireService) buildSong(result ports.ConversionResult) (domain.Song, error) {
	format := media.DetectFormat(result.Audio)

	song := domain.Song{
		ID:        uuid.NewString(),
		Title:     result.Title,
		Artist:    result.Author,
		CreatedAt: time.Now(),
	}

	file, err := s.store.WriteVariant(song.ID, domain.VariantFull, format.Ext, format.MIME, result.Audio)
	if err != nil {
		return domain.Song{}, err
	}
	song.Variants.Full = file

	// Embedded tags win over whatever the server scraped
	if meta, err := tag.ReadFrom(bytes.NewReader(result.Audio)); err == nil {
		if title := meta.Title(); title != "" {
			song.Title = title
		}
		if artist := meta.Artist(); artist != "" {
			song.Artist = artist
		}
		song.Album = meta.Album()

		if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
			uri, err := s.store.WriteArtwork(song.ID, pic.Data)
			if err != nil {
				s.logger.Warn("failed to store artwork", slog.Any("error", err))
			} else {
				song.Artwork = uri
			}
		}
	}

	if song.Title == "" {
		song.Title = "Untitled"
	}
	return song, nil
}

// startProgressPolling publishes advisory progress events every poll
// interval until the returned stop function is called. Poll errors are
// logged and skipped; progress never gates completion.
func (s *AcquireService) startProgressPolling(ctx context.Context, requestID string) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				progress, err := s.backend.Progress(ctx, requestID)
				if err != nil {
					s.logger.Debug("progress poll failed",
						slog.String("request_id", requestID),
						slog.Any("error", err))
					continue
				}
				s.bus.Publish(domain.NewAcquisitionProgressEvent(requestID, progress))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
