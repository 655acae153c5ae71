package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	base := t.TempDir()
	store := NewStore(base, logger.NewTestLogger())
	require.NoError(t, store.EnsureBase())
	return store, base
}

func TestStore_WriteVariant(t *testing.T) {
	store, base := newTestStore(t)

	data := []byte("fake mp3 bytes")
	file, err := store.WriteVariant("s1", domain.VariantFull, "mp3", "audio/mpeg", data)
	require.NoError(t, err)

	assert.Equal(t, "audio/mpeg", file.MIME)
	assert.Equal(t, int64(len(data)), file.Size)
	assert.True(t, strings.HasPrefix(file.URI, "file://"))

	onDisk, err := os.ReadFile(filepath.Join(base, "songs", "s1", "full.mp3"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestStore_WriteVariantRejectsUnknownVariant(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.WriteVariant("s1", domain.Variant("remix"), "mp3", "audio/mpeg", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrStorageWriteFailure)
}

func TestStore_LyricsRoundTripPreservesEmptyLines(t *testing.T) {
	store, _ := newTestStore(t)

	lines := []string{"first", "", "third", ""}
	require.NoError(t, store.WriteLyrics("s1", lines))

	got, err := store.ReadLyrics("s1")
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestStore_ReadLyricsMissingIsNil(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.ReadLyrics("nothing here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RemoveSong(t *testing.T) {
	store, base := newTestStore(t)

	_, err := store.WriteVariant("s1", domain.VariantFull, "mp3", "audio/mpeg", []byte("x"))
	require.NoError(t, err)
	_, err = store.WriteArtwork("s1", []byte("jpg"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveSong("s1"))

	_, statErr := os.Stat(filepath.Join(base, "songs", "s1"))
	assert.True(t, os.IsNotExist(statErr))

	// Removing again is fine
	assert.NoError(t, store.RemoveSong("s1"))
}

func TestStore_StatVariant(t *testing.T) {
	store, _ := newTestStore(t)

	path, err := store.VariantPath("s1", domain.VariantVocals, "mp3")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("vocal stem"), 0o644))

	file, err := store.StatVariant(path, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, int64(10), file.Size)
	assert.Equal(t, "audio/mpeg", file.MIME)
}
