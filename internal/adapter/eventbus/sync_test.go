package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/logger"
)

func TestSyncEventBus_PublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()

	var received []domain.Event
	bus.Subscribe(domain.EventSongAdded, func(e domain.Event) {
		received = append(received, e)
	})

	event := domain.NewSongAddedEvent(domain.Song{ID: "s1", Title: "Test"})
	bus.Publish(event)

	require.Len(t, received, 1)
	assert.Equal(t, domain.EventSongAdded, received[0].Type())
}

func TestSyncEventBus_TypeFiltering(t *testing.T) {
	bus := NewSyncEventBus()

	var added, removed int
	bus.Subscribe(domain.EventSongAdded, func(domain.Event) { added++ })
	bus.Subscribe(domain.EventSongRemoved, func(domain.Event) { removed++ })

	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s1"}))
	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s2"}))
	bus.Publish(domain.NewSongRemovedEvent("s1"))

	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
}

func TestSyncEventBus_Unsubscribe(t *testing.T) {
	bus := NewSyncEventBus()

	var calls int
	id := bus.Subscribe(domain.EventSongAdded, func(domain.Event) { calls++ })

	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s1"}))
	bus.Unsubscribe(id)
	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s2"}))

	assert.Equal(t, 1, calls)
}

func TestSyncEventBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())

	var survived bool
	bus.Subscribe(domain.EventSongAdded, func(domain.Event) {
		panic("handler bug")
	})
	bus.Subscribe(domain.EventSongAdded, func(domain.Event) {
		survived = true
	})

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s1"}))
	})
	assert.True(t, survived)
}

func TestSyncEventBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := NewSyncEventBus()

	var calls int
	bus.Subscribe(domain.EventSongAdded, func(domain.Event) { calls++ })

	require.NoError(t, bus.Close())
	bus.Publish(domain.NewSongAddedEvent(domain.Song{ID: "s1"}))

	assert.Equal(t, 0, calls)
	assert.Error(t, bus.Close())
}

func TestSyncEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus()

	var mu sync.Mutex
	var calls int
	bus.Subscribe(domain.EventSessionProgress, func(domain.Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(domain.NewSessionProgressEvent(0, 0, true))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, calls)
}
