// Package feed carries "the sketches table changed" notifications between
// processes. Events say which record was touched but consumers are expected
// to re-read the whole collection rather than apply deltas.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/cache"
	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/database"
	"github.com/Additional-Code/sketchbook/internal/messaging"
)

// Op names the kind of change that happened.
type Op string

const (
	OpUpsert Op = "UPSERT"
	OpDelete Op = "DELETE"
	// OpUnknown marks notifications whose payload could not be read.
	OpUnknown Op = "UNKNOWN"
)

// Event describes a change to the sketches table.
type Event struct {
	Op Op        `json:"op"`
	ID string    `json:"id,omitempty"`
	At time.Time `json:"at"`
}

// Listener receives change events.
type Listener func(ctx context.Context, ev Event)

// Unsubscribe releases a listener. Calling it more than once is safe.
type Unsubscribe func()

// Feed announces and delivers change events.
type Feed interface {
	Announce(ctx context.Context, ev Event) error
	Listen(ctx context.Context, fn Listener) (Unsubscribe, error)
}

// Module provides the hub and the configured feed to Fx.
var Module = fx.Provide(NewHub, New)

// New selects the feed driver named in configuration.
func New(lc fx.Lifecycle, cfg config.Config, conns *database.Connections, hub *Hub, publisher messaging.Client, logger *zap.Logger) (Feed, error) {
	switch cfg.Feed.Driver {
	case "local":
		logger.Info("change feed: in-process hub")
		return hub, nil
	case "postgres":
		logger.Info("change feed: postgres notify", zap.String("channel", cfg.Feed.Channel))
		return NewPostgres(conns.Writer, cfg.Feed.Channel, cfg.Feed.Buffer, logger), nil
	case "redis":
		client := cache.NewRedisClient(cfg.Cache.Redis)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("ping redis feed: %w", err)
				}
				logger.Info("change feed: redis pub/sub", zap.String("channel", cfg.Feed.Channel))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return NewRedis(client, cfg.Feed.Channel, logger), nil
	case "kafka":
		logger.Info("change feed: kafka", zap.String("topic", publisher.Topic()))
		return NewKafka(publisher, hub), nil
	default:
		return nil, fmt.Errorf("unsupported feed driver: %s", cfg.Feed.Driver)
	}
}

// Encode serialises an event for transports that carry bytes.
func Encode(ev Event) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return json.Marshal(ev)
}

// Decode reads an event payload. Unreadable payloads still count as a change.
func Decode(payload []byte) Event {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Op == "" {
		return Event{Op: OpUnknown, At: time.Now().UTC()}
	}
	return ev
}
