// Package media manages the on-disk layout of downloaded audio: one
// directory per song holding its variants, artwork and lyrics.
package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// Store lays files out as <base>/songs/<id>/{full.<ext>, vocals.<ext>,
// instrumental.<ext>, artwork.jpg, lyrics.txt}.
type Store struct {
	base   string
	logger *slog.Logger
}

// NewStore creates a media store rooted at base.
func NewStore(base string, logger *slog.Logger) *Store {
	return &Store{base: base, logger: logger}
}

// EnsureBase creates the base directory tree if missing.
func (s *Store) EnsureBase() error {
	if err := os.MkdirAll(filepath.Join(s.base, "songs"), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWriteFailure, err)
	}
	return nil
}

func (s *Store) songDir(songID string) string {
	return filepath.Join(s.base, "songs", songID)
}

// WriteVariant stores audio bytes as the given variant of the song.
func (s *Store) WriteVariant(songID string, variant domain.Variant, ext, mime string, data []byte) (domain.AudioFile, error) {
	if !variant.Valid() {
		return domain.AudioFile{}, fmt.Errorf("%w: unknown variant %q", domain.ErrStorageWriteFailure, variant)
	}
	path, err := s.VariantPath(songID, variant, ext)
	if err != nil {
		return domain.AudioFile{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.AudioFile{}, fmt.Errorf("%w: write %s: %v", domain.ErrStorageWriteFailure, variant, err)
	}
	return domain.AudioFile{
		URI:  FileURI(path),
		MIME: mime,
		Size: int64(len(data)),
	}, nil
}

// VariantPath returns the destination path for a variant file, creating
// the song directory if needed.
func (s *Store) VariantPath(songID string, variant domain.Variant, ext string) (string, error) {
	if !variant.Valid() {
		return "", fmt.Errorf("%w: unknown variant %q", domain.ErrStorageWriteFailure, variant)
	}
	dir := s.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create song dir: %v", domain.ErrStorageWriteFailure, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", variant, strings.TrimPrefix(ext, "."))), nil
}

// StatVariant builds an AudioFile for an already-written file.
func (s *Store) StatVariant(path, mime string) (domain.AudioFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.AudioFile{}, fmt.Errorf("%w: stat %s: %v", domain.ErrStorageWriteFailure, path, err)
	}
	return domain.AudioFile{
		URI:  FileURI(path),
		MIME: mime,
		Size: info.Size(),
	}, nil
}

// WriteArtwork stores cover art bytes and returns the file URI.
func (s *Store) WriteArtwork(songID string, data []byte) (string, error) {
	dir := s.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create song dir: %v", domain.ErrStorageWriteFailure, err)
	}
	path := filepath.Join(dir, "artwork.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write artwork: %v", domain.ErrStorageWriteFailure, err)
	}
	return FileURI(path), nil
}

// WriteLyrics stores lyric lines newline-joined. Empty lines are kept;
// they carry the verse spacing.
func (s *Store) WriteLyrics(songID string, lines []string) error {
	dir := s.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create song dir: %v", domain.ErrStorageWriteFailure, err)
	}
	path := filepath.Join(dir, "lyrics.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("%w: write lyrics: %v", domain.ErrStorageWriteFailure, err)
	}
	return nil
}

// ReadLyrics loads stored lyric lines. Returns nil, nil when the song
// has no lyrics file.
func (s *Store) ReadLyrics(songID string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.songDir(songID), "lyrics.txt"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read lyrics: %v", domain.ErrStorageWriteFailure, err)
	}
	return strings.Split(string(data), "\n"), nil
}

// RemoveSong deletes the song's media directory.
func (s *Store) RemoveSong(songID string) error {
	if err := os.RemoveAll(s.songDir(songID)); err != nil {
		return fmt.Errorf("%w: remove song dir: %v", domain.ErrStorageWriteFailure, err)
	}
	return nil
}

// FileURI converts a local path to a file:// URI.
func FileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// Verify that Store implements the MediaStore interface
var _ ports.MediaStore = (*Store)(nil)
