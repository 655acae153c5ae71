package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// fakeRepo is an in-memory SongRepository.
type fakeRepo struct {
	mu        sync.Mutex
	songs     map[string]domain.Song
	initCalls int
	failSave  bool
	failInit  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{songs: make(map[string]domain.Song)}
}

func (r *fakeRepo) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInit {
		return domain.ErrStorageUnavailable
	}
	r.initCalls++
	return nil
}

func (r *fakeRepo) Save(ctx context.Context, song domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return domain.NewStoreError("save", domain.ErrStorageUnavailable)
	}
	r.songs[song.ID] = song
	return nil
}

func (r *fakeRepo) Load(ctx context.Context, id string) (domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return domain.Song{}, domain.ErrSongNotFound
	}
	return song, nil
}

func (r *fakeRepo) LoadAll(ctx context.Context) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Song, 0, len(r.songs))
	for _, song := range r.songs {
		out = append(out, song)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.songs, id)
	return nil
}

func (r *fakeRepo) Close() error { return nil }

func (r *fakeRepo) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.songs[id]
	return ok
}

var _ ports.SongRepository = (*fakeRepo)(nil)

// fakeMedia writes real files under a test temp dir and can be told to
// fail specific operations.
type fakeMedia struct {
	mu         sync.Mutex
	base       string
	failWrite  bool
	failRemove bool
	removed    []string
}

func newFakeMedia(base string) *fakeMedia {
	return &fakeMedia{base: base}
}

func (m *fakeMedia) EnsureBase() error {
	return os.MkdirAll(filepath.Join(m.base, "songs"), 0o755)
}

func (m *fakeMedia) songDir(songID string) string {
	return filepath.Join(m.base, "songs", songID)
}

func (m *fakeMedia) WriteVariant(songID string, variant domain.Variant, ext, mime string, data []byte) (domain.AudioFile, error) {
	m.mu.Lock()
	failWrite := m.failWrite
	m.mu.Unlock()
	if failWrite {
		return domain.AudioFile{}, domain.ErrStorageWriteFailure
	}
	path, err := m.VariantPath(songID, variant, ext)
	if err != nil {
		return domain.AudioFile{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.AudioFile{}, err
	}
	return domain.AudioFile{URI: "file://" + path, MIME: mime, Size: int64(len(data))}, nil
}

func (m *fakeMedia) VariantPath(songID string, variant domain.Variant, ext string) (string, error) {
	dir := m.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", variant, ext)), nil
}

func (m *fakeMedia) StatVariant(path, mime string) (domain.AudioFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.AudioFile{}, err
	}
	return domain.AudioFile{URI: "file://" + path, MIME: mime, Size: info.Size()}, nil
}

func (m *fakeMedia) WriteArtwork(songID string, data []byte) (string, error) {
	dir := m.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "artwork.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return "file://" + path, nil
}

func (m *fakeMedia) WriteLyrics(songID string, lines []string) error {
	dir := m.songDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "lyrics.txt"), []byte(strings.Join(lines, "\n")), 0o644)
}

func (m *fakeMedia) ReadLyrics(songID string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(m.songDir(songID), "lyrics.txt"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

func (m *fakeMedia) RemoveSong(songID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRemove {
		return domain.ErrStorageWriteFailure
	}
	m.removed = append(m.removed, songID)
	return os.RemoveAll(m.songDir(songID))
}

var _ ports.MediaStore = (*fakeMedia)(nil)

// fakeBackend lets each test script the backend's behavior per method.
type fakeBackend struct {
	mu sync.Mutex

	convertFn   func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error)
	progressFn  func(ctx context.Context, requestID string) (float64, error)
	lyricsFn    func(ctx context.Context, songName string, linkIndex int) ([]string, error)
	uploadFn    func(ctx context.Context, songID, fileName, mime string, audio []byte) error
	stateFn     func(ctx context.Context, songID string) (domain.StemServerState, error)
	resultFn    func(ctx context.Context, songID string) (domain.StemResult, error)
	cleanupFn   func(ctx context.Context, songID string) error
	fetchFileFn func(ctx context.Context, url, destPath string) error

	cleanupCalls int
}

func (b *fakeBackend) Convert(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
	if b.convertFn != nil {
		return b.convertFn(ctx, sourceURL, requestID)
	}
	return ports.ConversionResult{}, nil
}

func (b *fakeBackend) Progress(ctx context.Context, requestID string) (float64, error) {
	if b.progressFn != nil {
		return b.progressFn(ctx, requestID)
	}
	return 0, nil
}

func (b *fakeBackend) ScrapeLyrics(ctx context.Context, songName string, linkIndex int) ([]string, error) {
	if b.lyricsFn != nil {
		return b.lyricsFn(ctx, songName, linkIndex)
	}
	return nil, nil
}

func (b *fakeBackend) UploadForSeparation(ctx context.Context, songID, fileName, mime string, audio []byte) error {
	if b.uploadFn != nil {
		return b.uploadFn(ctx, songID, fileName, mime, audio)
	}
	return nil
}

func (b *fakeBackend) StemState(ctx context.Context, songID string) (domain.StemServerState, error) {
	if b.stateFn != nil {
		return b.stateFn(ctx, songID)
	}
	return domain.StemServerState{}, nil
}

func (b *fakeBackend) StemResult(ctx context.Context, songID string) (domain.StemResult, error) {
	if b.resultFn != nil {
		return b.resultFn(ctx, songID)
	}
	return domain.StemResult{}, nil
}

func (b *fakeBackend) StemCleanup(ctx context.Context, songID string) error {
	b.mu.Lock()
	b.cleanupCalls++
	b.mu.Unlock()
	if b.cleanupFn != nil {
		return b.cleanupFn(ctx, songID)
	}
	return nil
}

func (b *fakeBackend) FetchFile(ctx context.Context, url, destPath string) error {
	if b.fetchFileFn != nil {
		return b.fetchFileFn(ctx, url, destPath)
	}
	return os.WriteFile(destPath, []byte("stem audio"), 0o644)
}

var _ ports.Backend = (*fakeBackend)(nil)
