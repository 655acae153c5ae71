package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// restartThreshold is how far into a track PlayPrev still means
// "previous song" rather than "restart this one".
const restartThreshold = 3 * time.Second

// SessionService is the player session state machine. It owns the single
// live engine handle: every operation that needs a new handle stops and
// unloads the old one first, so at any instant at most one track is
// loaded in the engine.
//
// The catalog ordering (newest first) doubles as the playlist.
// All operations are thread-safe via sync.RWMutex.
type SessionService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	engine  ports.AudioEngine
	catalog *CatalogService
	bus     ports.EventBus

	// State
	currentSong    *domain.Song
	currentHandle  domain.TrackHandle
	currentIndex   int
	currentVariant domain.Variant
	updateInterval time.Duration

	// Seek gesture substate
	isSeeking            bool
	seekPosition         time.Duration
	wasPlayingBeforeSeek bool

	// Concurrency control
	mu            sync.RWMutex
	isLoading     bool // Drops re-entrant handle-swap calls
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup
	manualStop    bool // True if the user explicitly stopped playback
	hasPlayed     bool // True if the current track has been played
}

// NewSessionService creates a new session service and starts the
// position update routine.
func NewSessionService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	catalog *CatalogService,
	bus ports.EventBus,
) *SessionService {
	service := &SessionService{
		logger:         logger,
		engine:         engine,
		catalog:        catalog,
		bus:            bus,
		currentHandle:  domain.InvalidTrackHandle,
		currentIndex:   -1,
		currentVariant: domain.VariantFull,
		updateInterval: 250 * time.Millisecond,
		stopUpdate:     make(chan struct{}),
	}

	logger.Debug("session service initialized")

	service.startUpdateRoutine()

	return service
}

// SetUpdateInterval overrides the progress publish interval, restarting
// the update routine. Tests use this to speed the ticker up.
func (s *SessionService) SetUpdateInterval(d time.Duration) {
	s.mu.Lock()
	if d <= 0 || d == s.updateInterval {
		s.mu.Unlock()
		return
	}
	s.updateInterval = d
	running := s.updateRunning
	if running {
		close(s.stopUpdate)
		s.updateRunning = false
	}
	s.mu.Unlock()

	if !running {
		return
	}
	s.updateWg.Wait()

	s.mu.Lock()
	s.stopUpdate = make(chan struct{})
	s.mu.Unlock()
	s.startUpdateRoutine()
}

// LoadAndPlay loads the song's full variant and starts playback. The
// previous track, if any, is stopped and unloaded first. Re-entrant
// calls while a load is in flight are dropped, not queued.
func (s *SessionService) LoadAndPlay(id string) error {
	song, err := s.catalog.GetByID(id)
	if err != nil {
		return err
	}
	index := s.indexOf(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isLoading {
		s.logger.Debug("load already in flight, dropping", slog.String("song_id", id))
		return nil
	}
	s.isLoading = true
	defer func() { s.isLoading = false }()

	return s.loadLocked(song, index, domain.VariantFull, 0, true)
}

// loadLocked swaps the engine handle to the given song/variant. Caller
// must hold the write lock. On failure the session reverts to empty.
func (s *SessionService) loadLocked(song domain.Song, index int, variant domain.Variant, position time.Duration, play bool) error {
	file := song.Variants.File(variant)
	if file == nil {
		return domain.ErrVariantUnavailable
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.stopLocked(); err != nil {
			s.logger.Warn("failed to stop current track", slog.Any("error", err))
		}
	}

	handle, err := s.engine.Load(file.URI)
	if err != nil {
		s.clearLocked()
		s.bus.Publish(domain.NewSessionErrorEvent(song.ID, err))
		return err
	}

	duration, err := s.engine.Duration(handle)
	if err != nil {
		if unloadErr := s.engine.Unload(handle); unloadErr != nil {
			s.logger.Warn("failed to unload track after duration error", slog.Any("error", unloadErr))
		}
		s.clearLocked()
		s.bus.Publish(domain.NewSessionErrorEvent(song.ID, err))
		return err
	}

	if position > 0 {
		if position > duration {
			position = duration
		}
		if err := s.engine.Seek(handle, position); err != nil {
			s.logger.Warn("failed to restore position", slog.Any("error", err))
		}
	}

	if play {
		if err := s.engine.Play(handle); err != nil {
			if unloadErr := s.engine.Unload(handle); unloadErr != nil {
				s.logger.Warn("failed to unload track after play error", slog.Any("error", unloadErr))
			}
			s.clearLocked()
			s.bus.Publish(domain.NewSessionErrorEvent(song.ID, err))
			return err
		}
	}

	s.currentSong = &song
	s.currentHandle = handle
	s.currentIndex = index
	s.currentVariant = variant
	s.manualStop = false
	s.hasPlayed = play
	s.isSeeking = false

	// The engine's decoded duration is authoritative; persist it the
	// first time it is discovered.
	if song.Duration == 0 && duration > 0 {
		go s.persistDuration(song.ID, duration)
	}

	s.bus.Publish(domain.NewSessionLoadedEvent(song, variant, index))
	return nil
}

func (s *SessionService) persistDuration(id string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.catalog.mutate(ctx, id, func(song *domain.Song) {
		if song.Duration == 0 {
			song.Duration = duration
			song.Variants.Full.Duration = duration
		}
	})
	if err != nil {
		s.logger.Warn("failed to persist discovered duration",
			slog.String("song_id", id),
			slog.Any("error", err))
	}
}

// TogglePlayPause flips between playing and paused. A no-op when no
// track is loaded.
func (s *SessionService) TogglePlayPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		return err
	}

	if status == domain.StatusPlaying {
		return s.engine.Pause(s.currentHandle)
	}

	s.manualStop = false
	s.hasPlayed = true
	return s.engine.Play(s.currentHandle)
}

// StartSeek begins a seek gesture: playback pauses, the pre-seek playing
// state is captured, and progress updates freeze until the gesture ends.
func (s *SessionService) StartSeek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	if s.isSeeking {
		return nil
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		return err
	}
	s.wasPlayingBeforeSeek = status == domain.StatusPlaying

	if s.wasPlayingBeforeSeek {
		if err := s.engine.Pause(s.currentHandle); err != nil {
			return err
		}
	}

	s.isSeeking = true
	s.seekPosition = position
	return nil
}

// UpdateSeek moves the pending scrub position. Advisory only; the
// engine is not touched until FinishSeek.
func (s *SessionService) UpdateSeek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSeeking {
		return nil
	}
	s.seekPosition = position
	return nil
}

// FinishSeek commits the gesture: the engine seeks to the last scrub
// position and playback resumes iff it was playing when the gesture
// started.
func (s *SessionService) FinishSeek() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSeeking {
		return nil
	}
	s.isSeeking = false

	position := s.seekPosition
	if duration, err := s.engine.Duration(s.currentHandle); err == nil && position > duration {
		position = duration
	}
	if position < 0 {
		position = 0
	}

	if err := s.engine.Seek(s.currentHandle, position); err != nil {
		// Resume anyway so a failed seek doesn't leave playback stuck
		s.resumeAfterSeekLocked()
		return err
	}
	s.resumeAfterSeekLocked()
	return nil
}

// CancelSeek abandons the gesture: position stays where it was and
// playback resumes iff it was playing before.
func (s *SessionService) CancelSeek() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSeeking {
		return nil
	}
	s.isSeeking = false
	s.resumeAfterSeekLocked()
	return nil
}

func (s *SessionService) resumeAfterSeekLocked() {
	if !s.wasPlayingBeforeSeek {
		return
	}
	s.wasPlayingBeforeSeek = false
	if err := s.engine.Play(s.currentHandle); err != nil {
		s.logger.Warn("failed to resume after seek", slog.Any("error", err))
	}
}

// SeekTo performs an immediate seek without the gesture substate. The
// position is clamped to the track bounds.
func (s *SessionService) SeekTo(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 {
		position = 0
	}
	if duration, err := s.engine.Duration(s.currentHandle); err == nil && position > duration {
		position = duration
	}
	return s.engine.Seek(s.currentHandle, position)
}

// SwitchVariant reloads the current song under another variant,
// preserving position and playing state. Switching to the variant
// already loaded is a no-op.
func (s *SessionService) SwitchVariant(variant domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle || s.currentSong == nil {
		return domain.ErrNoTrackLoaded
	}
	if !variant.Valid() || s.currentSong.Variants.File(variant) == nil {
		return domain.ErrVariantUnavailable
	}
	if variant == s.currentVariant {
		return nil
	}
	if s.isLoading {
		s.logger.Debug("load already in flight, dropping variant switch")
		return nil
	}
	s.isLoading = true
	defer func() { s.isLoading = false }()

	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		position = 0
	}
	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		status = domain.StatusPaused
	}

	song := *s.currentSong
	return s.loadLocked(song, s.currentIndex, variant, position, status == domain.StatusPlaying)
}

// PlayNext advances to the next song in the catalog order. At the end
// of the catalog it stops playback instead of wrapping.
func (s *SessionService) PlayNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isLoading {
		s.logger.Debug("load already in flight, dropping next")
		return nil
	}
	s.isLoading = true
	defer func() { s.isLoading = false }()

	return s.playNextLocked()
}

func (s *SessionService) playNextLocked() error {
	songs := s.catalog.Songs()
	next := s.currentIndex + 1

	if next >= len(songs) {
		// End of the playlist: stop and rewind rather than wrap
		var lastID string
		if s.currentSong != nil {
			lastID = s.currentSong.ID
		}
		if s.currentHandle != domain.InvalidTrackHandle {
			if err := s.engine.Pause(s.currentHandle); err != nil {
				s.logger.Warn("failed to pause at playlist end", slog.Any("error", err))
			}
			if err := s.engine.Seek(s.currentHandle, 0); err != nil {
				s.logger.Warn("failed to rewind at playlist end", slog.Any("error", err))
			}
		}
		s.manualStop = true
		s.hasPlayed = false
		s.bus.Publish(domain.NewSessionEndedEvent(lastID))
		return nil
	}

	return s.loadLocked(songs[next], next, domain.VariantFull, 0, true)
}

// PlayPrev goes back one song. More than three seconds into a track, or
// already at the first song, it restarts the current track instead.
func (s *SessionService) PlayPrev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isLoading {
		s.logger.Debug("load already in flight, dropping prev")
		return nil
	}
	s.isLoading = true
	defer func() { s.isLoading = false }()

	position := time.Duration(0)
	if s.currentHandle != domain.InvalidTrackHandle {
		if p, err := s.engine.Position(s.currentHandle); err == nil {
			position = p
		}
	}

	if position > restartThreshold || s.currentIndex <= 0 {
		if s.currentHandle == domain.InvalidTrackHandle {
			return domain.ErrNoTrackLoaded
		}
		return s.engine.Seek(s.currentHandle, 0)
	}

	songs := s.catalog.Songs()
	prev := s.currentIndex - 1
	if prev >= len(songs) {
		return domain.ErrSongNotFound
	}
	return s.loadLocked(songs[prev], prev, domain.VariantFull, 0, true)
}

// Stop stops playback and unloads the current track.
func (s *SessionService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked()
}

// stopLocked stops playback without locking (caller must hold lock).
func (s *SessionService) stopLocked() error {
	if s.currentHandle == domain.InvalidTrackHandle {
		return nil
	}

	s.manualStop = true
	s.hasPlayed = false

	handle := s.currentHandle
	s.clearLocked()

	if err := s.engine.Unload(handle); err != nil {
		return err
	}
	return nil
}

func (s *SessionService) clearLocked() {
	s.currentHandle = domain.InvalidTrackHandle
	s.currentSong = nil
	s.currentIndex = -1
	s.currentVariant = domain.VariantFull
	s.isSeeking = false
	s.wasPlayingBeforeSeek = false
}

// Snapshot returns the current session state.
func (s *SessionService) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.SessionState{
		Index:   s.currentIndex,
		Variant: s.currentVariant,
		Status:  domain.StatusStopped,
		Seeking: s.isSeeking,
	}
	if s.currentSong != nil {
		song := *s.currentSong
		state.Song = &song
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if status, err := s.engine.Status(s.currentHandle); err == nil {
			state.Status = status
		}
		if position, err := s.engine.Position(s.currentHandle); err == nil {
			state.Position = position
		}
		if duration, err := s.engine.Duration(s.currentHandle); err == nil {
			state.Duration = duration
		}
	}
	if s.isSeeking {
		state.Position = s.seekPosition
	}
	return state
}

// Shutdown stops the update routine and unloads the current track.
func (s *SessionService) Shutdown() error {
	s.mu.Lock()

	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.updateWg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked()
}

func (s *SessionService) indexOf(id string) int {
	for i, song := range s.catalog.Songs() {
		if song.ID == id {
			return i
		}
	}
	return -1
}

// startUpdateRoutine starts a goroutine that periodically publishes progress events.
func (s *SessionService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	interval := s.updateInterval
	stop := s.stopUpdate
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return

			case <-ticker.C:
				s.publishProgressUpdate()
			}
		}
	}()
}

// publishProgressUpdate publishes a progress event if a track is loaded.
// Frozen while a seek gesture is in flight.
func (s *SessionService) publishProgressUpdate() {
	s.mu.RLock()

	if s.currentHandle == domain.InvalidTrackHandle || s.currentSong == nil || s.isSeeking {
		s.mu.RUnlock()
		return
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		s.mu.RUnlock()
		return
	}
	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		s.mu.RUnlock()
		return
	}
	duration, err := s.engine.Duration(s.currentHandle)
	if err != nil {
		s.mu.RUnlock()
		return
	}

	// Natural end of media: status flips to stopped with the track
	// still loaded and no manual stop recorded
	shouldAdvance := status == domain.StatusStopped && !s.manualStop && s.hasPlayed

	s.mu.RUnlock()

	s.bus.Publish(domain.NewSessionProgressEvent(position, duration, status == domain.StatusPlaying))

	if shouldAdvance {
		s.mu.Lock()
		// Re-check under the write lock; an operation may have raced in
		if s.currentHandle != domain.InvalidTrackHandle && s.hasPlayed && !s.manualStop && !s.isLoading {
			s.hasPlayed = false
			if err := s.playNextLocked(); err != nil {
				s.logger.Warn("auto-advance failed", slog.Any("error", err))
			}
		}
		s.mu.Unlock()
	}
}
