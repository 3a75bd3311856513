package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

func newTestHub() *Hub {
	return NewHub(config.Config{Feed: config.Feed{Buffer: 4}}, zap.NewNop())
}

func TestHub_DeliversToEveryListener(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	first := make(chan Event, 1)
	second := make(chan Event, 1)

	unsubA, err := hub.Listen(ctx, func(_ context.Context, ev Event) { first <- ev })
	require.NoError(t, err)
	defer unsubA()
	unsubB, err := hub.Listen(ctx, func(_ context.Context, ev Event) { second <- ev })
	require.NoError(t, err)
	defer unsubB()

	require.NoError(t, hub.Announce(ctx, Event{Op: OpUpsert, ID: "a"}))

	for _, ch := range []chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, OpUpsert, ev.Op)
			assert.Equal(t, "a", ev.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	got := make(chan Event, 4)
	unsub, err := hub.Listen(ctx, func(_ context.Context, ev Event) { got <- ev })
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Len())

	unsub()
	unsub()
	assert.Equal(t, 0, hub.Len())

	hub.Broadcast(Event{Op: OpDelete, ID: "gone"})
	select {
	case ev := <-got:
		t.Fatalf("unexpected event after unsubscribe: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ContextCancelReleasesListener(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := hub.Listen(ctx, func(context.Context, Event) {})
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEncodeDecode(t *testing.T) {
	payload, err := Encode(Event{Op: OpDelete, ID: "x"})
	require.NoError(t, err)

	ev := Decode(payload)
	assert.Equal(t, OpDelete, ev.Op)
	assert.Equal(t, "x", ev.ID)
	assert.False(t, ev.At.IsZero())

	assert.Equal(t, OpUnknown, Decode([]byte("not json")).Op)
	assert.Equal(t, OpUnknown, Decode([]byte(`{}`)).Op)
}
