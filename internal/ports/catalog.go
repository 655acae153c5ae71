// Package ports defines repository and storage interfaces for persistence abstraction.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// SongRepository is the durable half of the catalog: one record per song,
// keyed by id. Implementations must be thread-safe.
type SongRepository interface {
	// Init makes the storage schema-ready. It is idempotent and safe to
	// call repeatedly and concurrently.
	Init(ctx context.Context) error

	// Save inserts or replaces the record for song.ID (whole-record,
	// last writer wins).
	Save(ctx context.Context, song domain.Song) error

	// Load returns the song with the given id, or domain.ErrSongNotFound.
	Load(ctx context.Context, id string) (domain.Song, error)

	// LoadAll returns every song ordered by CreatedAt descending.
	LoadAll(ctx context.Context) ([]domain.Song, error)

	// Delete removes the record for id. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying storage.
	Close() error
}

// MediaStore manages the per-song on-disk media layout: one directory per
// song id holding the variant files, artwork and lyrics.
type MediaStore interface {
	// EnsureBase creates the base directories if missing. Idempotent.
	EnsureBase() error

	// WriteVariant stores audio bytes as the given variant of the song
	// and returns the resulting AudioFile (file URI, mime, size).
	WriteVariant(songID string, variant domain.Variant, ext, mime string, data []byte) (domain.AudioFile, error)

	// VariantPath returns the path a variant download should be written
	// to, creating the song directory if needed.
	VariantPath(songID string, variant domain.Variant, ext string) (string, error)

	// StatVariant builds an AudioFile for an already-written variant file.
	StatVariant(path, mime string) (domain.AudioFile, error)

	// WriteArtwork stores cover art bytes and returns its file URI.
	WriteArtwork(songID string, data []byte) (string, error)

	// WriteLyrics stores lyric lines newline-joined.
	WriteLyrics(songID string, lines []string) error

	// ReadLyrics loads stored lyric lines, or nil if none exist.
	ReadLyrics(songID string) ([]string, error)

	// RemoveSong deletes the song's entire media directory.
	RemoveSong(songID string) error
}
