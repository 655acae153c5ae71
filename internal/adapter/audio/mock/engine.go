// Package mock provides an in-memory implementation of the AudioEngine
// interface for testing services without real audio output.
package mock

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// Engine simulates audio playback in memory.
//
// Thread-safety: all methods may be called concurrently.
type Engine struct {
	mu         sync.RWMutex
	tracks     map[domain.TrackHandle]*mockTrack
	nextHandle domain.TrackHandle

	defaultDuration time.Duration

	// Behavior configuration for error scenarios
	failLoad bool
	failPlay bool
	failSeek bool
}

type mockTrack struct {
	uri      string
	duration time.Duration
	position time.Duration
	status   domain.PlaybackStatus
}

// NewEngine creates a new mock audio engine. Loaded tracks report a
// three minute duration unless overridden with SetDefaultDuration.
func NewEngine() *Engine {
	return &Engine{
		tracks:          make(map[domain.TrackHandle]*mockTrack),
		nextHandle:      1,
		defaultDuration: 3 * time.Minute,
	}
}

// SetDefaultDuration sets the duration reported for subsequently loaded tracks.
func (m *Engine) SetDefaultDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultDuration = d
}

// SetFailLoad configures the mock to fail loading tracks.
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback.
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSeek configures the mock to fail seeking.
func (m *Engine) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// Load opens a fake track for the given URI.
func (m *Engine) Load(uri string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLoad {
		return domain.InvalidTrackHandle, domain.NewEngineError("load", uri, "mock load failed", nil)
	}
	if uri == "" {
		return domain.InvalidTrackHandle, domain.NewEngineError("load", uri, "empty uri", nil)
	}

	handle := m.nextHandle
	m.nextHandle++
	m.tracks[handle] = &mockTrack{
		uri:      uri,
		duration: m.defaultDuration,
		status:   domain.StatusStopped,
	}
	return handle, nil
}

// Unload releases the track.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}
	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlay {
		return domain.NewEngineError("play", "", "mock play failed", nil)
	}
	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	track.status = domain.StatusPlaying
	return nil
}

// Pause suspends playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if track.status == domain.StatusPlaying {
		track.status = domain.StatusPaused
	}
	return nil
}

// Seek moves the transport position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSeek {
		return domain.NewEngineError("seek", "", "mock seek failed", nil)
	}
	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if position < 0 || position > track.duration {
		return domain.ErrInvalidPosition
	}
	track.position = position
	return nil
}

// Status returns the transport state.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.StatusStopped, domain.ErrInvalidTrackHandle
	}
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.duration, nil
}

// Close releases the engine.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	return nil
}

// LoadedTracks returns the number of currently loaded tracks (for testing).
func (m *Engine) LoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// TrackURI returns the URI a handle was loaded from (for testing).
func (m *Engine) TrackURI(handle domain.TrackHandle) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if track, exists := m.tracks[handle]; exists {
		return track.uri
	}
	return ""
}

// SimulateProgress advances the position of a playing track. Reaching the
// end flips the track to stopped, mimicking natural end of media.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if track.status != domain.StatusPlaying {
		return domain.NewEngineError("simulate", track.uri, "track is not playing", nil)
	}
	track.position += delta
	if track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
	}
	return nil
}

// FinishTrack jumps a playing track straight to its natural end.
func (m *Engine) FinishTrack(handle domain.TrackHandle) error {
	m.mu.RLock()
	track, exists := m.tracks[handle]
	m.mu.RUnlock()
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	return m.SimulateProgress(handle, track.duration)
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
