package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/offtune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/logger"
	"github.com/tejashwikalptaru/offtune/internal/ports"
	"github.com/tejashwikalptaru/offtune/internal/testutil"
)

func newTestAcquire(t *testing.T, backend *fakeBackend, cfg AcquireConfig) (*AcquireService, *CatalogService, *eventbus.SyncEventBus) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	media := newFakeMedia(t.TempDir())
	catalog := NewCatalogService(newFakeRepo(), media, bus, logger.NewTestLogger())
	require.NoError(t, catalog.Initialize(context.Background()))

	acquire := NewAcquireService(logger.NewTestLogger(), backend, media, catalog, bus, cfg)
	return acquire, catalog, bus
}

// id3Payload builds a payload of the given size starting with the ID3
// tag marker bytes.
func id3Payload(size int) []byte {
	payload := make([]byte, size)
	copy(payload, []byte{0x49, 0x44, 0x33})
	return payload
}

func TestAcquireService_EndToEnd(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	var polls atomic.Int32
	progression := []float64{0.05, 0.5, 1.0}

	backend := &fakeBackend{
		progressFn: func(ctx context.Context, requestID string) (float64, error) {
			n := polls.Add(1)
			if int(n) > len(progression) {
				return 1.0, nil
			}
			return progression[n-1], nil
		},
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			time.Sleep(80 * time.Millisecond) // Let a few polls land
			return ports.ConversionResult{
				Audio:  id3Payload(2000),
				Title:  "Converted Song",
				Author: "Converted Artist",
			}, nil
		},
	}

	acquire, catalog, bus := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	var mu sync.Mutex
	var stages []string
	bus.Subscribe(domain.EventAcquisitionProgress, func(e domain.Event) {
		mu.Lock()
		stages = append(stages, e.(domain.AcquisitionProgressEvent).Stage)
		mu.Unlock()
	})

	song, err := acquire.Acquire(context.Background(), "https://example.com/watch?v=abc")
	require.NoError(t, err)

	assert.NotEmpty(t, song.ID)
	assert.Equal(t, "Converted Song", song.Title)
	assert.Equal(t, "Converted Artist", song.Artist)
	assert.Equal(t, "audio/mpeg", song.Variants.Full.MIME)
	assert.Equal(t, int64(2000), song.Variants.Full.Size)
	assert.NotEmpty(t, song.Variants.Full.URI)

	// Newest first: the acquired song sits at index 0
	songs := catalog.Songs()
	require.NotEmpty(t, songs)
	assert.Equal(t, song.ID, songs[0].ID)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, stages)
	assert.Equal(t, "fetching metadata", stages[0])
}

func TestAcquireService_ServerTimeoutMapsToAcquisitionTimeout(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	backend := &fakeBackend{
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			return ports.ConversionResult{}, &domain.BackendError{Status: 504, Message: "conversion timed out"}
		},
	}
	acquire, catalog, _ := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	_, err := acquire.Acquire(context.Background(), "https://example.com/slow")
	assert.ErrorIs(t, err, domain.ErrAcquisitionTimeout)
	assert.Empty(t, catalog.Songs())
}

func TestAcquireService_ClientTimeout(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	backend := &fakeBackend{
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			<-ctx.Done()
			return ports.ConversionResult{}, ctx.Err()
		},
	}
	acquire, catalog, _ := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      30 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})

	_, err := acquire.Acquire(context.Background(), "https://example.com/slow")
	assert.Error(t, err)
	assert.Empty(t, catalog.Songs())
}

func TestAcquireService_UndersizedPayloadRejected(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	backend := &fakeBackend{
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			return ports.ConversionResult{Audio: []byte("tiny")}, nil
		},
	}
	acquire, catalog, _ := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	_, err := acquire.Acquire(context.Background(), "https://example.com/broken")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Empty(t, catalog.Songs())
}

func TestAcquireService_CancelledBeforeRegistration(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	ctx, cancel := context.WithCancel(context.Background())

	backend := &fakeBackend{
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			cancel()
			// A payload that raced in just as the user cancelled
			return ports.ConversionResult{Audio: id3Payload(2000)}, nil
		},
	}
	acquire, catalog, _ := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	_, err := acquire.Acquire(ctx, "https://example.com/cancelled")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, catalog.Songs())
}

func TestAcquireService_ProgressPollFailuresAreNotFatal(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	backend := &fakeBackend{
		progressFn: func(ctx context.Context, requestID string) (float64, error) {
			return 0, domain.ErrNetworkFailure
		},
		convertFn: func(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
			time.Sleep(50 * time.Millisecond)
			return ports.ConversionResult{Audio: id3Payload(500), Title: "Still Works"}, nil
		},
	}
	acquire, _, _ := newTestAcquire(t, backend, AcquireConfig{
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	song, err := acquire.Acquire(context.Background(), "https://example.com/flaky")
	require.NoError(t, err)
	assert.Equal(t, "Still Works", song.Title)
}

func TestAcquireService_EmptyURLRejected(t *testing.T) {
	acquire, _, _ := newTestAcquire(t, &fakeBackend{}, AcquireConfig{})

	_, err := acquire.Acquire(context.Background(), "")
	assert.Error(t, err)
}
