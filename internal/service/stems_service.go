package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// StemConfig tunes the stem separation workflow.
type StemConfig struct {
	// PollInterval is how often a processing job's state is polled.
	PollInterval time.Duration

	// ResultRetryInterval is the wait between result fetch attempts.
	ResultRetryInterval time.Duration

	// ResultRetryCount bounds the result fetch attempts.
	ResultRetryCount int

	// UploadTickInterval paces the simulated upload progress.
	UploadTickInterval time.Duration
}

// DefaultStemConfig matches the backend's pacing.
func DefaultStemConfig() StemConfig {
	return StemConfig{
		PollInterval:        2 * time.Second,
		ResultRetryInterval: 1200 * time.Millisecond,
		ResultRetryCount:    20,
		UploadTickInterval:  300 * time.Millisecond,
	}
}

// stemJob is the client-side view of one song's separation workflow.
type stemJob struct {
	phase    domain.StemPhase
	percent  float64
	inFlight bool
}

// StemsService drives the stem separation workflow per song: upload,
// processing poll, result download, atomic variant attach. Each song
// carries an in-flight marker so concurrent starts for the same song are
// ignored rather than queued.
type StemsService struct {
	mu sync.Mutex

	logger  *slog.Logger
	backend ports.Backend
	store   ports.MediaStore
	catalog *CatalogService
	bus     ports.EventBus
	cfg     StemConfig

	jobs map[string]*stemJob
}

// NewStemsService creates a new stems service.
func NewStemsService(
	logger *slog.Logger,
	backend ports.Backend,
	store ports.MediaStore,
	catalog *CatalogService,
	bus ports.EventBus,
	cfg StemConfig,
) *StemsService {
	def := DefaultStemConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ResultRetryInterval <= 0 {
		cfg.ResultRetryInterval = def.ResultRetryInterval
	}
	if cfg.ResultRetryCount <= 0 {
		cfg.ResultRetryCount = def.ResultRetryCount
	}
	if cfg.UploadTickInterval <= 0 {
		cfg.UploadTickInterval = def.UploadTickInterval
	}
	return &StemsService{
		logger:  logger,
		backend: backend,
		store:   store,
		catalog: catalog,
		bus:     bus,
		cfg:     cfg,
		jobs:    make(map[string]*stemJob),
	}
}

// Phase returns the song's current workflow phase and displayed percent.
func (s *StemsService) Phase(songID string) (domain.StemPhase, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[songID]; ok {
		return job.phase, job.percent
	}
	return domain.StemIdle, 0
}

// Bootstrap checks the server for an existing job of the song and syncs
// the local phase, so a restart doesn't lose a finished separation.
func (s *StemsService) Bootstrap(ctx context.Context, songID string) {
	song, err := s.catalog.GetByID(songID)
	if err != nil || song.HasStems() {
		return
	}

	state, err := s.backend.StemState(ctx, songID)
	if err != nil {
		return
	}
	switch {
	case state.Ready && state.Available:
		s.setPhase(songID, domain.StemReadyToDownload, 100)
	case state.State != "" && state.Available:
		s.setPhase(songID, domain.StemProcessing, state.Progress)
	}
}

// StartExtraction uploads the song's full variant and polls the job
// until the server reports it ready. Blocks until the job reaches
// readyToDownload, fails, or ctx is cancelled. A second call for the
// same song while one is in flight is ignored.
func (s *StemsService) StartExtraction(ctx context.Context, songID string) error {
	song, err := s.catalog.GetByID(songID)
	if err != nil {
		return err
	}
	if song.HasStems() {
		return nil
	}

	if !s.acquire(songID) {
		s.logger.Debug("stem extraction already in flight", slog.String("song_id", songID))
		return nil
	}
	defer s.release(songID)

	// The server may still hold a job from a previous run: finished jobs
	// go straight to download, in-progress ones resume polling
	if state, err := s.backend.StemState(ctx, songID); err == nil {
		if state.Ready && state.Available {
			s.setPhase(songID, domain.StemReadyToDownload, 100)
			return nil
		}
		if state.State != "" && state.Available {
			s.setPhase(songID, domain.StemProcessing, state.Progress)
			return s.pollProcessing(ctx, songID)
		}
	}

	if err := s.upload(ctx, songID, song); err != nil {
		s.setPhase(songID, domain.StemIdle, 0)
		return err
	}

	return s.pollProcessing(ctx, songID)
}

// upload posts the full variant with simulated progress; the transport
// exposes no real byte progress, so the percent is a paced estimate
// capped below completion.
func (s *StemsService) upload(ctx context.Context, songID string, song domain.Song) error {
	full := song.Variants.Full
	audio, err := os.ReadFile(strings.TrimPrefix(full.URI, "file://"))
	if err != nil {
		return fmt.Errorf("%w: read full variant: %v", domain.ErrUploadFailed, err)
	}

	s.setPhase(songID, domain.StemUploading, 0)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.UploadTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.bumpPercent(songID, 5, 95)
			}
		}
	}()

	fileName := path.Base(strings.TrimPrefix(full.URI, "file://"))
	err = s.backend.UploadForSeparation(ctx, songID, fileName, full.MIME, audio)
	close(done)
	wg.Wait()

	if err != nil {
		return err
	}
	s.setPhase(songID, domain.StemProcessing, 0)
	return nil
}

// pollProcessing watches the server job until it turns ready. The
// displayed percent never regresses even if the server reports lower.
func (s *StemsService) pollProcessing(ctx context.Context, songID string) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state, err := s.backend.StemState(ctx, songID)
			if err != nil {
				s.logger.Debug("stem state poll failed",
					slog.String("song_id", songID),
					slog.Any("error", err))
				continue
			}
			if state.Ready {
				s.setPhase(songID, domain.StemReadyToDownload, 100)
				return nil
			}
			s.bumpPercent(songID, 0, state.Progress)
		}
	}
}

// SaveStems downloads both derived files and attaches them to the song
// atomically. Requires the job to be ready; retries the result fetch on
// a fixed schedule before giving up. On any failure the phase returns to
// readyToDownload so the finished server job isn't forgotten.
func (s *StemsService) SaveStems(ctx context.Context, songID string) error {
	song, err := s.catalog.GetByID(songID)
	if err != nil {
		return err
	}
	if song.HasStems() {
		return nil
	}

	if !s.acquire(songID) {
		s.logger.Debug("stem workflow already in flight", slog.String("song_id", songID))
		return nil
	}
	defer s.release(songID)

	result, err := s.waitForResult(ctx, songID)
	if err != nil {
		s.setPhase(songID, domain.StemReadyToDownload, 100)
		return err
	}

	s.setPhase(songID, domain.StemDownloading, 0)

	vocals, err := s.download(ctx, songID, domain.VariantVocals, result.VocalsURL, song.Variants.Full.Duration)
	if err != nil {
		s.setPhase(songID, domain.StemReadyToDownload, 100)
		return err
	}
	s.bumpPercent(songID, 0, 50)

	instrumental, err := s.download(ctx, songID, domain.VariantInstrumental, result.InstrumentalSource(), song.Variants.Full.Duration)
	if err != nil {
		s.setPhase(songID, domain.StemReadyToDownload, 100)
		return err
	}
	s.bumpPercent(songID, 0, 100)

	// Both variants land in one catalog replace so no reader ever sees
	// a song with exactly one stem
	err = s.catalog.mutate(ctx, songID, func(target *domain.Song) {
		target.Variants.Vocals = &vocals
		target.Variants.Instrumental = &instrumental
	})
	if err != nil {
		s.setPhase(songID, domain.StemReadyToDownload, 100)
		return err
	}

	if err := s.backend.StemCleanup(ctx, songID); err != nil {
		s.logger.Warn("stem cleanup failed",
			slog.String("song_id", songID),
			slog.Any("error", err))
	}

	s.setPhase(songID, domain.StemIdle, 0)
	s.logger.Info("stems attached", slog.String("song_id", songID))
	return nil
}

func (s *StemsService) waitForResult(ctx context.Context, songID string) (domain.StemResult, error) {
	for attempt := 0; attempt < s.cfg.ResultRetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.StemResult{}, ctx.Err()
			case <-time.After(s.cfg.ResultRetryInterval):
			}
		}

		result, err := s.backend.StemResult(ctx, songID)
		if err != nil {
			s.logger.Debug("stem result fetch failed",
				slog.String("song_id", songID),
				slog.Any("error", err))
			continue
		}
		if result.Complete() {
			return result, nil
		}
	}
	return domain.StemResult{}, domain.ErrResultNotReady
}

func (s *StemsService) download(ctx context.Context, songID string, variant domain.Variant, fileURL string, duration time.Duration) (domain.AudioFile, error) {
	ext := extFromURL(fileURL)
	dest, err := s.store.VariantPath(songID, variant, ext)
	if err != nil {
		return domain.AudioFile{}, err
	}
	if err := s.backend.FetchFile(ctx, fileURL, dest); err != nil {
		return domain.AudioFile{}, err
	}

	file, err := s.store.StatVariant(dest, mimeForExt(ext))
	if err != nil {
		return domain.AudioFile{}, err
	}
	// Derived stems share the full mix's timeline
	file.Duration = duration
	return file, nil
}

func (s *StemsService) acquire(songID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[songID]
	if !ok {
		job = &stemJob{phase: domain.StemIdle}
		s.jobs[songID] = job
	}
	if job.inFlight {
		return false
	}
	job.inFlight = true
	return true
}

func (s *StemsService) release(songID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[songID]; ok {
		job.inFlight = false
	}
}

func (s *StemsService) setPhase(songID string, phase domain.StemPhase, percent float64) {
	s.mu.Lock()
	job, ok := s.jobs[songID]
	if !ok {
		job = &stemJob{}
		s.jobs[songID] = job
	}
	job.phase = phase
	job.percent = percent
	s.mu.Unlock()

	s.bus.Publish(domain.NewStemPhaseChangedEvent(songID, phase, percent))
}

// bumpPercent raises the displayed percent monotonically: by delta when
// delta > 0, otherwise to floor if that is higher than the current
// value. cap bounds delta-based increments.
func (s *StemsService) bumpPercent(songID string, delta, floor float64) {
	s.mu.Lock()
	job, ok := s.jobs[songID]
	if !ok {
		s.mu.Unlock()
		return
	}
	next := job.percent
	if delta > 0 {
		next += delta
		if next > floor {
			next = floor
		}
	} else if floor > next {
		next = floor
	}
	if next == job.percent {
		s.mu.Unlock()
		return
	}
	job.percent = next
	phase := job.phase
	s.mu.Unlock()

	s.bus.Publish(domain.NewStemPhaseChangedEvent(songID, phase, next))
}

func extFromURL(fileURL string) string {
	if u, err := url.Parse(fileURL); err == nil {
		if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" {
			return ext
		}
	}
	return "mp3"
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case "wav":
		return "audio/wav"
	case "m4a", "mp4":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	default:
		return "audio/mpeg"
	}
}
