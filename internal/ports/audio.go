// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// AudioEngine is the interface for audio playback engines.
// It abstracts the underlying audio library and allows testing with mocks.
//
// At most one track is expected to be loaded at a time; enforcing that is
// the session's job, not the engine's. Implementations must be thread-safe.
type AudioEngine interface {
	// Load opens the media at the given local URI and returns a handle
	// to it. The track starts out stopped at position zero.
	Load(uri string) (domain.TrackHandle, error)

	// Unload stops playback if necessary and releases all resources held
	// for the handle. The handle is invalid afterwards.
	Unload(handle domain.TrackHandle) error

	// Play starts or resumes playback from the current position.
	Play(handle domain.TrackHandle) error

	// Pause suspends playback, preserving the position.
	Pause(handle domain.TrackHandle) error

	// Seek moves the transport to the given position. The position must
	// be within [0, Duration].
	Seek(handle domain.TrackHandle, position time.Duration) error

	// Status returns the transport state of the track.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the current playback position.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the track.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Close releases the engine itself.
	Close() error
}
