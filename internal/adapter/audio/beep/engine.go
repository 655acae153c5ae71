// Package beep implements the AudioEngine interface on top of gopxl/beep,
// decoding local media files and playing them through the default output
// device.
package beep

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// Engine plays audio via the beep speaker. The speaker is a process-wide
// singleton, so the engine holds at most one decoded track; loading a new
// one silently replaces whatever is queued.
type Engine struct {
	mu sync.Mutex

	logger      *slog.Logger
	sampleRate  beep.SampleRate
	speakerInit bool

	nextHandle domain.TrackHandle
	current    *loadedTrack
}

type loadedTrack struct {
	handle   domain.TrackHandle
	uri      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// NewEngine creates a beep-backed audio engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:     logger,
		sampleRate: beep.SampleRate(44100),
		nextHandle: 1,
	}
}

// Load decodes the media file at the given URI and queues it, paused, on
// the speaker. Supported containers: mp3, wav, flac.
func (e *Engine) Load(uri string) (domain.TrackHandle, error) {
	path := strings.TrimPrefix(uri, "file://")

	f, err := os.Open(path)
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewEngineError("load", uri, "open media file", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		// mp3 is also the sniffing fallback for unrecognized payloads
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return domain.InvalidTrackHandle, domain.NewEngineError("load", uri, "decode media", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.speakerInit {
		if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
			_ = streamer.Close()
			return domain.InvalidTrackHandle, domain.NewEngineError("load", uri, "init speaker", err)
		}
		e.speakerInit = true
	}

	// Drop whatever was queued before; the session unloads explicitly,
	// but a stale streamer must never keep playing underneath a new one.
	e.dropCurrentLocked()

	resampled := beep.Resample(4, format.SampleRate, e.sampleRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: true}

	handle := e.nextHandle
	e.nextHandle++
	e.current = &loadedTrack{
		handle:   handle,
		uri:      uri,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
	}

	speaker.Play(ctrl)

	if e.logger != nil {
		e.logger.Debug("track loaded", slog.String("uri", uri), slog.Int64("handle", int64(handle)))
	}
	return handle, nil
}

// Unload stops and releases the track.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.current.handle != handle {
		return domain.ErrInvalidTrackHandle
	}
	e.dropCurrentLocked()
	return nil
}

func (e *Engine) dropCurrentLocked() {
	if e.current == nil {
		return
	}
	speaker.Clear()
	if err := e.current.streamer.Close(); err != nil && e.logger != nil {
		e.logger.Warn("failed to close streamer", slog.Any("error", err))
	}
	e.current = nil
}

// Play resumes playback from the current position.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return err
	}
	speaker.Lock()
	track.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause suspends playback, preserving the position.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return err
	}
	speaker.Lock()
	track.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Seek moves the transport to the given position.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return err
	}

	n := track.format.SampleRate.N(position)
	if n < 0 || n > track.streamer.Len() {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	err = track.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return domain.NewEngineError("seek", track.uri, "seek stream", err)
	}
	return nil
}

// Status returns the transport state of the track.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return domain.StatusStopped, err
	}

	speaker.Lock()
	pos := track.streamer.Position()
	length := track.streamer.Len()
	paused := track.ctrl.Paused
	speaker.Unlock()

	switch {
	case pos >= length:
		return domain.StatusStopped, nil
	case paused:
		return domain.StatusPaused, nil
	default:
		return domain.StatusPlaying, nil
	}
}

// Position returns the current playback position.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return 0, err
	}
	speaker.Lock()
	pos := track.streamer.Position()
	speaker.Unlock()
	return track.format.SampleRate.D(pos), nil
}

// Duration returns the total duration of the track.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, err := e.trackLocked(handle)
	if err != nil {
		return 0, err
	}
	return track.format.SampleRate.D(track.streamer.Len()), nil
}

// Close releases the engine and any loaded track.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropCurrentLocked()
	return nil
}

func (e *Engine) trackLocked(handle domain.TrackHandle) (*loadedTrack, error) {
	if e.current == nil {
		return nil, domain.ErrNoTrackLoaded
	}
	if e.current.handle != handle {
		return nil, domain.ErrInvalidTrackHandle
	}
	return e.current, nil
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
