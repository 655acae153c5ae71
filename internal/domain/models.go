// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the offtune music player.
package domain

import (
	"time"
)

// Variant identifies one of the alternate renderings of a song's audio.
type Variant string

const (
	// VariantFull is the original full mix. Every song has one.
	VariantFull Variant = "full"

	// VariantVocals is the isolated vocal stem.
	VariantVocals Variant = "vocals"

	// VariantInstrumental is the isolated instrumental stem.
	VariantInstrumental Variant = "instrumental"
)

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantFull, VariantVocals, VariantInstrumental:
		return true
	default:
		return false
	}
}

// AudioFile describes one locally stored media file backing a variant.
type AudioFile struct {
	// URI is the local file URI of the media file.
	URI string `json:"uri"`

	// MIME is the media container type (e.g. "audio/mpeg").
	MIME string `json:"mime"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Duration is the playing time, if known. Zero means unknown.
	Duration time.Duration `json:"duration,omitempty"`
}

// Variants holds the media files of a song. Full is always present.
// Vocals and Instrumental are attached together by the stem workflow or
// not at all; a song never carries exactly one of them.
type Variants struct {
	Full         AudioFile  `json:"full"`
	Vocals       *AudioFile `json:"vocals,omitempty"`
	Instrumental *AudioFile `json:"instrumental,omitempty"`
}

// File returns the audio file for the requested variant, or nil if the
// variant is not available on this song.
func (vs Variants) File(v Variant) *AudioFile {
	switch v {
	case VariantFull:
		f := vs.Full
		return &f
	case VariantVocals:
		return vs.Vocals
	case VariantInstrumental:
		return vs.Instrumental
	default:
		return nil
	}
}

// Song is the catalog entity: one downloaded track with its on-device
// media variants. The ID is assigned at creation and never changes; all
// other fields are replaced as a whole record (last writer wins).
type Song struct {
	// ID is a unique opaque identifier (UUID).
	ID string `json:"id"`

	// Title is the song title.
	Title string `json:"title"`

	// Artist is the performing artist, if known.
	Artist string `json:"artist,omitempty"`

	// Album is the album name, if known.
	Album string `json:"album,omitempty"`

	// Artwork is a local file URI or remote URL of cover art.
	Artwork string `json:"artwork,omitempty"`

	// Duration is the authoritative playing time once the playback
	// engine has discovered it. Zero means not yet known.
	Duration time.Duration `json:"duration,omitempty"`

	// Variants holds the stored media files. Full is mandatory.
	Variants Variants `json:"variants"`

	// Lyrics is the ordered lines of the song's lyrics. Empty lines are
	// meaningful (vertical spacing) and must be preserved.
	Lyrics []string `json:"lyrics,omitempty"`

	// CreatedAt orders the catalog (newest first).
	CreatedAt time.Time `json:"createdAt"`

	// PlayCount is the number of completed plays.
	PlayCount int `json:"playCount"`

	// Favorite marks a user favorite.
	Favorite bool `json:"favorite"`
}

// HasStems reports whether both derived stems are attached.
func (s *Song) HasStems() bool {
	return s != nil && s.Variants.Vocals != nil && s.Variants.Instrumental != nil
}

// TrackHandle is an opaque reference to a track loaded in the audio engine.
type TrackHandle int64

// InvalidTrackHandle represents an invalid or uninitialized track handle.
const InvalidTrackHandle TrackHandle = 0

// PlaybackStatus is the transport state of a loaded track.
type PlaybackStatus int

const (
	// StatusStopped indicates no playback, position at the start or end.
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates active playback.
	StatusPlaying

	// StatusPaused indicates playback suspended at the current position.
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// SessionState is a point-in-time snapshot of the player session.
type SessionState struct {
	// Song is the currently loaded song, nil when the session is empty.
	Song *Song

	// Index is the song's position in the catalog ordering, -1 when empty.
	Index int

	// Variant is the loaded variant.
	Variant Variant

	// Status is the transport state.
	Status PlaybackStatus

	// Position is the current playback position. While a seek gesture is
	// in flight this is the pending scrub position, not the engine's.
	Position time.Duration

	// Duration is the loaded track's duration.
	Duration time.Duration

	// Seeking reports whether a seek gesture is in flight.
	Seeking bool
}

// StemPhase is the client-side phase of a song's stem separation workflow.
type StemPhase string

const (
	StemIdle            StemPhase = "idle"
	StemUploading       StemPhase = "uploading"
	StemProcessing      StemPhase = "processing"
	StemReadyToDownload StemPhase = "readyToDownload"
	StemDownloading     StemPhase = "downloading"
)

// StemServerState is the server-side view of a stem separation job.
type StemServerState struct {
	State     string
	Progress  float64 // 0..100
	Ready     bool
	Available bool
	ExpiresAt time.Time
}

// StemResult is the terminal payload of a stem separation job.
type StemResult struct {
	Ready            bool
	Available        bool
	VocalsURL        string
	AccompanimentURL string
	InstrumentalURL  string
	ExpiresAt        time.Time
}

// InstrumentalSource returns whichever of the two instrumental-style URLs
// the server provided, preferring the explicit instrumental one.
func (r StemResult) InstrumentalSource() string {
	if r.InstrumentalURL != "" {
		return r.InstrumentalURL
	}
	return r.AccompanimentURL
}

// Complete reports whether the result carries everything the download
// step needs: both stem URLs on a ready, still-available job.
func (r StemResult) Complete() bool {
	return r.Ready && r.Available && r.VocalsURL != "" && r.InstrumentalSource() != ""
}

// AcquisitionStage maps a conversion progress fraction to the advisory
// label shown while an acquisition is in flight. The breakpoints mirror
// the backend's rough phase boundaries; the label never gates completion.
func AcquisitionStage(progress float64) string {
	switch {
	case progress < 0.10:
		return "fetching metadata"
	case progress < 0.40:
		return "preparing"
	case progress < 0.99:
		return "downloading"
	default:
		return "finishing"
	}
}
