package service

import (
	"context"
	"log/slog"

	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// lyricSourceCount is how many scraping sources the backend rotates
// through; link indexes wrap over this modulus.
const lyricSourceCount = 7

// LyricsService fetches lyrics from the backend's scraping sources and
// attaches them to catalog songs.
type LyricsService struct {
	logger  *slog.Logger
	backend ports.Backend
	catalog *CatalogService
}

// NewLyricsService creates a new lyrics service.
func NewLyricsService(logger *slog.Logger, backend ports.Backend, catalog *CatalogService) *LyricsService {
	return &LyricsService{
		logger:  logger,
		backend: backend,
		catalog: catalog,
	}
}

// Search fetches lyric lines for a song name. sourceIdx selects the
// scraping source; any integer is accepted and wrapped, so a caller can
// keep incrementing to cycle through alternates for the same song.
func (s *LyricsService) Search(ctx context.Context, songName string, sourceIdx int) ([]string, error) {
	linkIndex := ((sourceIdx % lyricSourceCount) + lyricSourceCount) % lyricSourceCount

	lines, err := s.backend.ScrapeLyrics(ctx, songName, linkIndex)
	if err != nil {
		s.logger.Debug("lyrics scrape failed",
			slog.String("song_name", songName),
			slog.Int("link_index", linkIndex),
			slog.Any("error", err))
		return nil, err
	}
	return lines, nil
}

// NextSource returns the source index to try after the given one.
func (s *LyricsService) NextSource(sourceIdx int) int {
	return (sourceIdx + 1) % lyricSourceCount
}

// Attach stores the lines as the song's lyrics.
func (s *LyricsService) Attach(ctx context.Context, songID string, lines []string) error {
	return s.catalog.UpdateLyrics(ctx, songID, lines)
}
