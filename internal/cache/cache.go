package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

// Store holds serialized sketch collections between reads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore picks the store named by CACHE_DRIVER. Keys are namespaced with
// the configured prefix for every driver, so switching drivers never changes
// which keys a deployment owns.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var store Store
	switch cfg.Cache.Driver {
	case "noop":
		logger.Info("cache disabled; sketches are read from the database every time")
		return noopStore{}, nil
	case "redis":
		store = newRedisStore(lc, cfg.Cache, logger)
	case "memory":
		logger.Info("sketch cache kept in process")
		store = NewMemoryStore(cfg.Cache.DefaultTTL)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
	return WithPrefix(store, cfg.Cache.KeyPrefix), nil
}

// WithPrefix returns a store that prepends prefix to every key.
func WithPrefix(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return prefixed{next: store, prefix: prefix}
}

type prefixed struct {
	next   Store
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	return p.next.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	return p.next.Set(ctx, p.prefix+key, value, ttl)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return p.next.Delete(ctx, p.prefix+key)
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }
func (noopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopStore) Delete(context.Context, string) error { return nil }
