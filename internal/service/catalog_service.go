// Package service contains application services orchestrating the domain
// logic over the port interfaces.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// CatalogService owns the song catalog: a durable repository fronted by
// an in-memory cache ordered newest first. All mutations write through
// to the repository before touching the cache.
//
// Thread-safety: all methods may be called concurrently.
type CatalogService struct {
	mu sync.RWMutex

	repo     ports.SongRepository
	media    ports.MediaStore
	eventBus ports.EventBus
	logger   *slog.Logger

	songs       []domain.Song
	initialized bool
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo ports.SongRepository, media ports.MediaStore, eventBus ports.EventBus, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		media:    media,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Initialize prepares storage and loads the cache. Idempotent: repeated
// calls after a success are no-ops, and a failed call may be retried.
func (s *CatalogService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.repo.Init(ctx); err != nil {
		return err
	}
	if err := s.media.EnsureBase(); err != nil {
		return err
	}
	songs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.songs = songs
	s.sortLocked()
	s.initialized = true

	s.logger.Info("catalog initialized", slog.Int("songs", len(songs)))
	return nil
}

// Songs returns a snapshot of the cached catalog, newest first.
func (s *CatalogService) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Song, len(s.songs))
	copy(out, s.songs)
	return out
}

// GetByID returns the cached song with the given id.
func (s *CatalogService) GetByID(id string) (domain.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, song := range s.songs {
		if song.ID == id {
			return song, nil
		}
	}
	return domain.Song{}, domain.ErrSongNotFound
}

// Upsert writes the song through to the repository and updates the
// cache. The whole record is replaced; last writer wins.
func (s *CatalogService) Upsert(ctx context.Context, song domain.Song) error {
	if song.ID == "" {
		return fmt.Errorf("upsert: song id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, song); err != nil {
		return err
	}

	replaced := false
	for i := range s.songs {
		if s.songs[i].ID == song.ID {
			s.songs[i] = song
			replaced = true
			break
		}
	}
	if !replaced {
		s.songs = append(s.songs, song)
	}
	s.sortLocked()

	if replaced {
		s.eventBus.Publish(domain.NewSongUpdatedEvent(song))
	} else {
		s.eventBus.Publish(domain.NewSongAddedEvent(song))
	}
	return nil
}

// Remove deletes the song's durable record, cache entry and media files.
// Media deletion is best effort: a failure there is logged, and the
// record still leaves the catalog.
func (s *CatalogService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.media.RemoveSong(id); err != nil {
		s.logger.Warn("failed to remove song media",
			slog.String("song_id", id),
			slog.Any("error", err))
	}

	for i := range s.songs {
		if s.songs[i].ID == id {
			s.songs = append(s.songs[:i], s.songs[i+1:]...)
			break
		}
	}

	s.eventBus.Publish(domain.NewSongRemovedEvent(id))
	return nil
}

// Refresh reloads the cache from the repository.
func (s *CatalogService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.songs = songs
	s.sortLocked()

	snapshot := make([]domain.Song, len(s.songs))
	copy(snapshot, s.songs)
	s.eventBus.Publish(domain.NewCatalogRefreshedEvent(snapshot))
	return nil
}

// UpdateMeta replaces the song's editable metadata fields. A non-empty
// artwork payload replaces the stored cover art as well.
func (s *CatalogService) UpdateMeta(ctx context.Context, id, title, artist, album string, artwork []byte) error {
	var artworkURI string
	if len(artwork) > 0 {
		uri, err := s.media.WriteArtwork(id, artwork)
		if err != nil {
			return err
		}
		artworkURI = uri
	}
	return s.mutate(ctx, id, func(song *domain.Song) {
		if title != "" {
			song.Title = title
		}
		song.Artist = artist
		song.Album = album
		if artworkURI != "" {
			song.Artwork = artworkURI
		}
	})
}

// UpdateLyrics replaces the song's lyric lines and mirrors them to the
// media store alongside the audio files.
func (s *CatalogService) UpdateLyrics(ctx context.Context, id string, lines []string) error {
	if err := s.mutate(ctx, id, func(song *domain.Song) {
		song.Lyrics = lines
	}); err != nil {
		return err
	}
	if err := s.media.WriteLyrics(id, lines); err != nil {
		s.logger.Warn("failed to mirror lyrics to media store",
			slog.String("song_id", id),
			slog.Any("error", err))
	}
	return nil
}

// ToggleFavorite flips the song's favorite flag and returns the new value.
func (s *CatalogService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var favorite bool
	err := s.mutate(ctx, id, func(song *domain.Song) {
		song.Favorite = !song.Favorite
		favorite = song.Favorite
	})
	return favorite, err
}

// mutate applies fn to the cached song, writes the result through and
// publishes an update event.
func (s *CatalogService) mutate(ctx context.Context, id string, fn func(*domain.Song)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.songs {
		if s.songs[i].ID != id {
			continue
		}
		updated := s.songs[i]
		fn(&updated)
		if err := s.repo.Save(ctx, updated); err != nil {
			return err
		}
		s.songs[i] = updated
		s.eventBus.Publish(domain.NewSongUpdatedEvent(updated))
		return nil
	}
	return domain.ErrSongNotFound
}

func (s *CatalogService) sortLocked() {
	sort.SliceStable(s.songs, func(i, j int) bool {
		return s.songs[i].CreatedAt.After(s.songs[j].CreatedAt)
	})
}

// Close releases the underlying repository.
func (s *CatalogService) Close() error {
	return s.repo.Close()
}
