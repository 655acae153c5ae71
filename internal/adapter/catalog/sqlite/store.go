// Package sqlite provides the durable song repository backed by an
// embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	artist     TEXT NOT NULL DEFAULT '',
	album      TEXT NOT NULL DEFAULT '',
	artwork    TEXT NOT NULL DEFAULT '',
	duration   INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	favorite   INTEGER NOT NULL DEFAULT 0,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_songs_created_at ON songs(created_at DESC);
`

// Store persists songs in a single-file SQLite database. Frequently
// queried fields live in their own columns; the full record rides along
// as a JSON payload so the schema never chases the model.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
	ready  bool
}

// NewStore opens (or creates) the database file at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", domain.ErrStorageUnavailable, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorageUnavailable, err)
	}

	// modernc sqlite is happiest with a single writer connection
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path, logger: logger}, nil
}

// Init creates the schema. Idempotent; repeated calls are cheap no-ops
// once the schema exists.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", domain.ErrStorageUnavailable, err)
	}
	s.ready = true
	if s.logger != nil {
		s.logger.Debug("catalog database ready", slog.String("path", s.path))
	}
	return nil
}

// Save inserts or replaces the full record for song.ID.
func (s *Store) Save(ctx context.Context, song domain.Song) error {
	payload, err := json.Marshal(song)
	if err != nil {
		return domain.NewStoreError("save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO songs (id, title, artist, album, artwork, duration, created_at, play_count, favorite, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			artist     = excluded.artist,
			album      = excluded.album,
			artwork    = excluded.artwork,
			duration   = excluded.duration,
			created_at = excluded.created_at,
			play_count = excluded.play_count,
			favorite   = excluded.favorite,
			payload    = excluded.payload`,
		song.ID, song.Title, song.Artist, song.Album, song.Artwork,
		int64(song.Duration), song.CreatedAt.UnixMilli(), song.PlayCount,
		boolToInt(song.Favorite), string(payload))
	if err != nil {
		return domain.NewStoreError("save", err)
	}
	return nil
}

// Load returns the song with the given id.
func (s *Store) Load(ctx context.Context, id string) (domain.Song, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM songs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Song{}, domain.ErrSongNotFound
	}
	if err != nil {
		return domain.Song{}, domain.NewStoreError("load", err)
	}
	return decodeSong(payload)
}

// LoadAll returns every song, newest first.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Song, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM songs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, domain.NewStoreError("load_all", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	songs := make([]domain.Song, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, domain.NewStoreError("load_all", err)
		}
		song, err := decodeSong(payload)
		if err != nil {
			// A corrupt row must not take the whole catalog down
			if s.logger != nil {
				s.logger.Warn("skipping corrupt catalog row", slog.Any("error", err))
			}
			continue
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("load_all", err)
	}
	return songs, nil
}

// Delete removes the record for id. Missing ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id); err != nil {
		return domain.NewStoreError("delete", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func decodeSong(payload string) (domain.Song, error) {
	var song domain.Song
	if err := json.Unmarshal([]byte(payload), &song); err != nil {
		return domain.Song{}, domain.NewStoreError("decode", err)
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Unix(0, 0)
	}
	return song, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Verify that Store implements the SongRepository interface
var _ ports.SongRepository = (*Store)(nil)
