package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "catalog.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	require.NoError(t, store.Init(context.Background()))
	return store
}

func sampleSong(id string, createdAt time.Time) domain.Song {
	return domain.Song{
		ID:        id,
		Title:     "Title " + id,
		Artist:    "Artist",
		Album:     "Album",
		Duration:  3 * time.Minute,
		CreatedAt: createdAt,
		Variants: domain.Variants{
			Full: domain.AudioFile{
				URI:      "file:///media/" + id + "/full.mp3",
				MIME:     "audio/mpeg",
				Size:     2000,
				Duration: 3 * time.Minute,
			},
		},
		Lyrics:   []string{"first line", "", "third line"},
		Favorite: true,
	}
}

func TestStore_InitIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Init(context.Background()))
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := sampleSong("s1", time.Now().Round(time.Millisecond))
	song.Variants.Vocals = &domain.AudioFile{URI: "file:///media/s1/vocals.mp3", MIME: "audio/mpeg", Size: 900}
	song.Variants.Instrumental = &domain.AudioFile{URI: "file:///media/s1/instrumental.mp3", MIME: "audio/mpeg", Size: 1100}

	require.NoError(t, store.Save(ctx, song))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, song.ID, got.ID)
	assert.Equal(t, song.Title, got.Title)
	assert.Equal(t, song.Lyrics, got.Lyrics)
	assert.Equal(t, song.Variants, got.Variants)
	assert.True(t, song.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.Favorite)
}

func TestStore_SaveReplacesWholeRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := sampleSong("s1", time.Now())
	require.NoError(t, store.Save(ctx, song))

	song.Title = "Renamed"
	song.Lyrics = nil
	require.NoError(t, store.Save(ctx, song))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Empty(t, got.Lyrics)
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)
}

func TestStore_LoadAllNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, store.Save(ctx, sampleSong("old", base.Add(-time.Hour))))
	require.NoError(t, store.Save(ctx, sampleSong("new", base)))
	require.NoError(t, store.Save(ctx, sampleSong("mid", base.Add(-time.Minute))))

	songs, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 3)
	assert.Equal(t, "new", songs[0].ID)
	assert.Equal(t, "mid", songs[1].ID)
	assert.Equal(t, "old", songs[2].ID)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Delete(context.Background(), "never existed"))
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSong("s1", time.Now())))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	ctx := context.Background()

	store, err := NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Save(ctx, sampleSong("s1", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close()
	}()
	require.NoError(t, reopened.Init(ctx))

	got, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Title s1", got.Title)
}
