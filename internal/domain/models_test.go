package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVariants_File(t *testing.T) {
	full := AudioFile{URI: "file:///full.mp3"}
	vocals := AudioFile{URI: "file:///vocals.mp3"}

	vs := Variants{Full: full, Vocals: &vocals}

	assert.Equal(t, full.URI, vs.File(VariantFull).URI)
	assert.Equal(t, vocals.URI, vs.File(VariantVocals).URI)
	assert.Nil(t, vs.File(VariantInstrumental))
	assert.Nil(t, vs.File(Variant("remix")))
}

func TestSong_HasStems(t *testing.T) {
	song := Song{ID: "s1"}
	assert.False(t, song.HasStems())

	song.Variants.Vocals = &AudioFile{}
	assert.False(t, song.HasStems(), "one stem alone is not enough")

	song.Variants.Instrumental = &AudioFile{}
	assert.True(t, song.HasStems())

	var nilSong *Song
	assert.False(t, nilSong.HasStems())
}

func TestAcquisitionStage(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "fetching metadata"},
		{0.09, "fetching metadata"},
		{0.10, "preparing"},
		{0.39, "preparing"},
		{0.40, "downloading"},
		{0.98, "downloading"},
		{0.99, "finishing"},
		{1.0, "finishing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AcquisitionStage(tt.progress), "progress %v", tt.progress)
	}
}

func TestStemResult_InstrumentalSource(t *testing.T) {
	r := StemResult{AccompanimentURL: "/a.mp3"}
	assert.Equal(t, "/a.mp3", r.InstrumentalSource())

	r.InstrumentalURL = "/i.mp3"
	assert.Equal(t, "/i.mp3", r.InstrumentalSource(), "explicit instrumental wins")
}

func TestStemResult_Complete(t *testing.T) {
	r := StemResult{Ready: true, Available: true, VocalsURL: "/v.mp3", AccompanimentURL: "/a.mp3"}
	assert.True(t, r.Complete())

	assert.False(t, StemResult{Ready: true, Available: true, VocalsURL: "/v.mp3"}.Complete())
	assert.False(t, StemResult{Ready: true, VocalsURL: "/v.mp3", AccompanimentURL: "/a.mp3"}.Complete())
	assert.False(t, StemResult{Available: true, VocalsURL: "/v.mp3", AccompanimentURL: "/a.mp3"}.Complete())
}

func TestBackendError_GatewayTimeoutUnwrapsToAcquisitionTimeout(t *testing.T) {
	err := &BackendError{Status: 504, Message: "too slow"}
	assert.ErrorIs(t, err, ErrAcquisitionTimeout)

	other := &BackendError{Status: 500, Message: "boom"}
	assert.NotErrorIs(t, other, ErrAcquisitionTimeout)
}

func TestPlaybackStatus_String(t *testing.T) {
	assert.Equal(t, "stopped", StatusStopped.String())
	assert.Equal(t, "playing", StatusPlaying.String())
	assert.Equal(t, "paused", StatusPaused.String())
	assert.Equal(t, "unknown", PlaybackStatus(42).String())
}

func TestVariant_Valid(t *testing.T) {
	assert.True(t, VariantFull.Valid())
	assert.True(t, VariantVocals.Valid())
	assert.True(t, VariantInstrumental.Valid())
	assert.False(t, Variant("remix").Valid())
	assert.False(t, Variant("").Valid())
}

func TestSessionStateZeroValue(t *testing.T) {
	var state SessionState
	assert.Nil(t, state.Song)
	assert.Equal(t, time.Duration(0), state.Position)
	assert.Equal(t, StatusStopped, state.Status)
}
