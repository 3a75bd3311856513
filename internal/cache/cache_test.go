package cache

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

func TestNewStore_Drivers(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	store, err := NewStore(lc, config.Config{Cache: config.Cache{Driver: "noop"}}, zap.NewNop())
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	store, err = NewStore(lc, config.Config{Cache: config.Cache{Driver: "memory"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(lc, config.Config{Cache: config.Cache{Driver: "memcached"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	got[0] = 'x'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again, "returned bytes are a copy")

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Error(t, s.Set(ctx, "", []byte("v"), 0))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "default", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "short", []byte("b"), time.Second))

	now = now.Add(2 * time.Second)
	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = s.Get(ctx, "default")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestWithPrefix_NamespacesKeys(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore(0)
	store := WithPrefix(inner, "sketchbook:")

	require.NoError(t, store.Set(ctx, "sketches:all", []byte("[]"), 0))

	got, err := inner.Get(ctx, "sketchbook:sketches:all")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)

	_, err = inner.Get(ctx, "sketches:all")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Delete(ctx, "sketches:all"))
	_, err = store.Get(ctx, "sketches:all")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Same(t, inner, WithPrefix(inner, ""))
}
