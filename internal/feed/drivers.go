package feed

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/messaging"
)

// Postgres uses LISTEN/NOTIFY on the database that stores the sketches.
type Postgres struct {
	db      *bun.DB
	channel string
	buffer  int
	logger  *zap.Logger
}

// NewPostgres builds a feed over pg_notify.
func NewPostgres(db *bun.DB, channel string, buffer int, logger *zap.Logger) *Postgres {
	if buffer <= 0 {
		buffer = 16
	}
	return &Postgres{db: db, channel: channel, buffer: buffer, logger: logger}
}

// Announce is a no-op: the sketches_changed trigger installed by the
// migrations notifies the channel for every write, including writes made
// by other clients directly against the table.
func (p *Postgres) Announce(context.Context, Event) error {
	return nil
}

// Listen opens a dedicated LISTEN connection for fn.
func (p *Postgres) Listen(ctx context.Context, fn Listener) (Unsubscribe, error) {
	ln := pgdriver.NewListener(p.db)
	if err := ln.Listen(ctx, p.channel); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("listen %s: %w", p.channel, err)
	}

	notifications := ln.CreateChannel(pgdriver.WithChannelSize(p.buffer))
	go func() {
		for n := range notifications {
			fn(ctx, Decode([]byte(n.Payload)))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := ln.Close(); err != nil {
				p.logger.Warn("close postgres listener", zap.Error(err))
			}
		})
	}, nil
}

// Redis uses pub/sub on a single channel.
type Redis struct {
	client  *goredis.Client
	channel string
	logger  *zap.Logger
}

// NewRedis builds a feed over redis pub/sub.
func NewRedis(client *goredis.Client, channel string, logger *zap.Logger) *Redis {
	return &Redis{client: client, channel: channel, logger: logger}
}

// Announce publishes the encoded event.
func (r *Redis) Announce(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Listen subscribes fn to the channel.
func (r *Redis) Listen(ctx context.Context, fn Listener) (Unsubscribe, error) {
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		for msg := range ps.Channel() {
			fn(ctx, Decode([]byte(msg.Payload)))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := ps.Close(); err != nil {
				r.logger.Warn("close redis subscription", zap.Error(err))
			}
		})
	}, nil
}

// Kafka publishes events to the messaging topic. Delivery back to listeners
// happens through the hub, which the sketch worker feeds from the topic.
type Kafka struct {
	publisher messaging.Client
	hub       *Hub
}

// NewKafka builds a feed that publishes through the messaging client.
func NewKafka(publisher messaging.Client, hub *Hub) *Kafka {
	return &Kafka{publisher: publisher, hub: hub}
}

// Announce publishes the encoded event keyed by sketch id.
func (k *Kafka) Announce(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return k.publisher.Publish(ctx, messaging.Message{
		Key:     []byte(ev.ID),
		Value:   payload,
		Headers: map[string]string{"content-type": "application/json", "sketch-op": string(ev.Op)},
	})
}

// Listen attaches fn to the local hub.
func (k *Kafka) Listen(ctx context.Context, fn Listener) (Unsubscribe, error) {
	return k.hub.Listen(ctx, fn)
}
