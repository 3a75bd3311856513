package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

func TestNewClient_Drivers(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	cfg := config.Config{Messaging: config.Messaging{Driver: "noop", Kafka: config.Kafka{Topic: "sketches.changes"}}}
	c, err := NewClient(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "sketches.changes", c.Topic())
	assert.NoError(t, c.Publish(context.Background(), Message{Value: []byte("x")}))

	cfg.Messaging.Enabled = true
	cfg.Messaging.Driver = "memory"
	c, err = NewClient(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, c)

	cfg.Messaging.Driver = "nats"
	_, err = NewClient(lc, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestMemoryClient_PublishConsume(t *testing.T) {
	c := NewMemoryClient("sketches.changes", 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Publish(ctx, Message{Key: []byte("a"), Value: []byte("1")}))
	require.NoError(t, c.Publish(ctx, Message{Key: []byte("b"), Value: []byte("2")}))

	got := make(chan Message, 2)
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		})
	}()

	for i, want := range []string{"a", "b"} {
		select {
		case msg := <-got:
			assert.Equal(t, want, string(msg.Key))
			assert.Equal(t, "sketches.changes", msg.Topic)
			assert.Equal(t, int64(i), msg.Offset)
		case <-time.After(time.Second):
			t.Fatal("message not consumed")
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryClient_PublishRespectsContext(t *testing.T) {
	c := NewMemoryClient("t", 1)
	require.NoError(t, c.Publish(context.Background(), Message{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Publish(ctx, Message{}), context.DeadlineExceeded)
}
