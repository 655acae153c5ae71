// Package domain defines events for the event-driven architecture.
// Events decouple the services from whatever surface is observing them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Catalog events
	EventSongAdded        EventType = "catalog.song_added"
	EventSongUpdated      EventType = "catalog.song_updated"
	EventSongRemoved      EventType = "catalog.song_removed"
	EventCatalogRefreshed EventType = "catalog.refreshed"

	// Session events
	EventSessionLoaded   EventType = "session.loaded"
	EventSessionProgress EventType = "session.progress"
	EventSessionEnded    EventType = "session.ended"
	EventSessionError    EventType = "session.error"

	// Acquisition events
	EventAcquisitionProgress EventType = "acquisition.progress"

	// Stem workflow events
	EventStemPhaseChanged EventType = "stems.phase_changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SongAddedEvent is published when a new song enters the catalog.
type SongAddedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongAddedEvent) Type() EventType { return EventSongAdded }

// NewSongAddedEvent creates a new SongAddedEvent.
func NewSongAddedEvent(song Song) SongAddedEvent {
	return SongAddedEvent{baseEvent: newBaseEvent(), Song: song}
}

// SongUpdatedEvent is published when an existing catalog record is replaced.
type SongUpdatedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongUpdatedEvent) Type() EventType { return EventSongUpdated }

// NewSongUpdatedEvent creates a new SongUpdatedEvent.
func NewSongUpdatedEvent(song Song) SongUpdatedEvent {
	return SongUpdatedEvent{baseEvent: newBaseEvent(), Song: song}
}

// SongRemovedEvent is published when a song leaves the catalog.
type SongRemovedEvent struct {
	baseEvent
	ID string
}

// Type returns the event type.
func (e SongRemovedEvent) Type() EventType { return EventSongRemoved }

// NewSongRemovedEvent creates a new SongRemovedEvent.
func NewSongRemovedEvent(id string) SongRemovedEvent {
	return SongRemovedEvent{baseEvent: newBaseEvent(), ID: id}
}

// CatalogRefreshedEvent is published after a full reload from durable storage.
type CatalogRefreshedEvent struct {
	baseEvent
	Songs []Song
}

// Type returns the event type.
func (e CatalogRefreshedEvent) Type() EventType { return EventCatalogRefreshed }

// NewCatalogRefreshedEvent creates a new CatalogRefreshedEvent.
func NewCatalogRefreshedEvent(songs []Song) CatalogRefreshedEvent {
	return CatalogRefreshedEvent{baseEvent: newBaseEvent(), Songs: songs}
}

// SessionLoadedEvent is published when a song is loaded into the player session.
type SessionLoadedEvent struct {
	baseEvent
	Song    Song
	Variant Variant
	Index   int
}

// Type returns the event type.
func (e SessionLoadedEvent) Type() EventType { return EventSessionLoaded }

// NewSessionLoadedEvent creates a new SessionLoadedEvent.
func NewSessionLoadedEvent(song Song, variant Variant, index int) SessionLoadedEvent {
	return SessionLoadedEvent{baseEvent: newBaseEvent(), Song: song, Variant: variant, Index: index}
}

// SessionProgressEvent is published periodically while a track is loaded.
type SessionProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
	Playing  bool
}

// Type returns the event type.
func (e SessionProgressEvent) Type() EventType { return EventSessionProgress }

// NewSessionProgressEvent creates a new SessionProgressEvent.
func NewSessionProgressEvent(position, duration time.Duration, playing bool) SessionProgressEvent {
	return SessionProgressEvent{baseEvent: newBaseEvent(), Position: position, Duration: duration, Playing: playing}
}

// SessionEndedEvent is published when the playlist runs out.
type SessionEndedEvent struct {
	baseEvent
	LastID string
}

// Type returns the event type.
func (e SessionEndedEvent) Type() EventType { return EventSessionEnded }

// NewSessionEndedEvent creates a new SessionEndedEvent.
func NewSessionEndedEvent(lastID string) SessionEndedEvent {
	return SessionEndedEvent{baseEvent: newBaseEvent(), LastID: lastID}
}

// SessionErrorEvent is published when a session operation fails.
type SessionErrorEvent struct {
	baseEvent
	SongID string
	Err    error
}

// Type returns the event type.
func (e SessionErrorEvent) Type() EventType { return EventSessionError }

// NewSessionErrorEvent creates a new SessionErrorEvent.
func NewSessionErrorEvent(songID string, err error) SessionErrorEvent {
	return SessionErrorEvent{baseEvent: newBaseEvent(), SongID: songID, Err: err}
}

// AcquisitionProgressEvent is published on each progress poll of an
// in-flight acquisition. Purely advisory.
type AcquisitionProgressEvent struct {
	baseEvent
	RequestID string
	Progress  float64 // 0..1
	Stage     string
}

// Type returns the event type.
func (e AcquisitionProgressEvent) Type() EventType { return EventAcquisitionProgress }

// NewAcquisitionProgressEvent creates a new AcquisitionProgressEvent.
func NewAcquisitionProgressEvent(requestID string, progress float64) AcquisitionProgressEvent {
	return AcquisitionProgressEvent{
		baseEvent: newBaseEvent(),
		RequestID: requestID,
		Progress:  progress,
		Stage:     AcquisitionStage(progress),
	}
}

// StemPhaseChangedEvent is published when a song's stem workflow phase or
// displayed percentage changes.
type StemPhaseChangedEvent struct {
	baseEvent
	SongID  string
	Phase   StemPhase
	Percent float64
}

// Type returns the event type.
func (e StemPhaseChangedEvent) Type() EventType { return EventStemPhaseChanged }

// NewStemPhaseChangedEvent creates a new StemPhaseChangedEvent.
func NewStemPhaseChangedEvent(songID string, phase StemPhase, percent float64) StemPhaseChangedEvent {
	return StemPhaseChangedEvent{baseEvent: newBaseEvent(), SongID: songID, Phase: phase, Percent: percent}
}
