package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hackspeech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishRoutesByPattern(t *testing.T) {
	bus := NewEventBus(nil, zap.NewNop())

	var exact, prefix, all int
	require.NoError(t, bus.Subscribe(TypeBadgeUnlocked, NewEventHandlerFunc("exact", func(ctx context.Context, e Event) error {
		exact++
		return nil
	})))
	require.NoError(t, bus.Subscribe("progress.*", NewEventHandlerFunc("prefix", func(ctx context.Context, e Event) error {
		prefix++
		return nil
	})))
	require.NoError(t, bus.Subscribe("*", NewEventHandlerFunc("all", func(ctx context.Context, e Event) error {
		all++
		return nil
	})))

	ctx := context.Background()
	bus.Publish(ctx, NewBadgeUnlockedEvent(1, &models.Badge{ID: 2, Name: "Vigilant"}))
	bus.Publish(ctx, NewPointsAwardedEvent(1, 15, 30, 1))
	bus.Publish(ctx, NewUserUpdatedEvent(1, "name"))

	assert.Equal(t, 1, exact)
	assert.Equal(t, 1, prefix)
	assert.Equal(t, 3, all)
	assert.Equal(t, int64(3), bus.Stats().EventsPublished)
}

func TestHandlerFailuresAreContained(t *testing.T) {
	bus := NewEventBus(nil, zap.NewNop())

	var reached bool
	require.NoError(t, bus.Subscribe("*", NewEventHandlerFunc("boom", func(ctx context.Context, e Event) error {
		panic("handler bug")
	})))
	require.NoError(t, bus.Subscribe("*", NewEventHandlerFunc("err", func(ctx context.Context, e Event) error {
		return errors.New("cache down")
	})))
	require.NoError(t, bus.Subscribe("*", NewEventHandlerFunc("ok", func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})))

	bus.Publish(context.Background(), NewChatClearedEvent(1, 4))

	assert.True(t, reached)
	assert.Equal(t, int64(1), bus.Stats().EventsFailed)
}

func TestSubscribeAsync(t *testing.T) {
	bus := NewEventBus(&EventBusConfig{BufferSize: 4, WorkerCount: 1, HandlerTimeout: time.Second}, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	var inline bool
	require.NoError(t, bus.Subscribe(TypeDetectionRecorded, NewEventHandlerFunc("inline", func(ctx context.Context, e Event) error {
		inline = true
		return nil
	})))

	delivered := make(chan error, 1)
	require.NoError(t, bus.SubscribeAsync(TypeDetectionRecorded, NewEventHandlerFunc("async", func(ctx context.Context, e Event) error {
		delivered <- ctx.Err()
		return nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, NewDetectionRecordedEvent(&models.Detection{ID: 9, UserID: 1}))
	assert.True(t, inline, "inline handlers run before Publish returns")
	cancel()

	select {
	case err := <-delivered:
		assert.NoError(t, err, "async handlers outlive the publisher's context")
	case <-time.After(time.Second):
		t.Fatal("async handler was not called")
	}

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Error(t, bus.Health())

	bus.Publish(context.Background(), NewDetectionRecordedEvent(&models.Detection{ID: 10, UserID: 1}))
	assert.Equal(t, int64(1), bus.Stats().EventsFailed, "a stopped bus drops async deliveries")
}

func TestSubscribeAsync_FullQueueDrops(t *testing.T) {
	bus := NewEventBus(&EventBusConfig{BufferSize: 1, WorkerCount: 1, HandlerTimeout: time.Second}, zap.NewNop())

	var mu sync.Mutex
	var got []int64
	require.NoError(t, bus.SubscribeAsync("*", NewEventHandlerFunc("async", func(ctx context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(*ChatClearedEvent).Deleted)
		return nil
	})))

	bus.Publish(context.Background(), NewChatClearedEvent(1, 1))
	bus.Publish(context.Background(), NewChatClearedEvent(1, 2))
	assert.Equal(t, 1, bus.Stats().QueueDepth)
	assert.Equal(t, int64(1), bus.Stats().EventsFailed)

	require.NoError(t, bus.Start(context.Background()))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == 1
	}, time.Second, 10*time.Millisecond)

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, bus.Stop(stopCtx))
}
