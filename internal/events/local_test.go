package events

import (
	"context"
	"testing"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalBus_FanOut(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	event := models.IncidentEvent{Kind: models.EventCreated, IncidentID: uuid.New()}
	require.NoError(t, bus.Publish(ctx, event))

	assert.Equal(t, event, <-first)
	assert.Equal(t, event, <-second)
}

func TestLocalBus_CancelClosesChannel(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	require.NoError(t, bus.Publish(context.Background(), models.IncidentEvent{}))
}

func TestLocalBus_SlowSubscriberDropped(t *testing.T) {
	bus := NewLocalBus()
	bus.buffer = 1
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, models.IncidentEvent{Kind: models.EventCreated}))
	require.NoError(t, bus.Publish(ctx, models.IncidentEvent{Kind: models.EventUpdated}))

	event, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, models.EventCreated, event.Kind)
	_, ok = <-ch
	assert.False(t, ok)
}

func TestLocalBus_Closed(t *testing.T) {
	bus := NewLocalBus()
	ch, err := bus.Subscribe(context.Background())
	require.NoError(t, err)

	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Publish(context.Background(), models.IncidentEvent{}), ErrBusClosed)
	_, err = bus.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrBusClosed)
}
