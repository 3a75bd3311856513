package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

// Message is a record published to or consumed from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. Returning an error leaves the
// message uncommitted.
type Handler func(context.Context, Message) error

// Client is the pluggable messaging abstraction.
type Client interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient builds a messaging client based on configuration.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	topic := cfg.Messaging.Kafka.Topic
	switch cfg.Messaging.Driver {
	case "noop", "":
		logger.Info("messaging disabled; change events stay in process")
		return noopClient{topic: topic}, nil
	case "kafka":
		return newKafkaClient(lc, cfg, logger)
	case "memory":
		logger.Info("using in-process message bus", zap.String("topic", topic))
		return NewMemoryClient(topic, cfg.Feed.Buffer), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, Message) error { return nil }
func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}
func (n noopClient) Topic() string { return n.topic }

// MemoryClient delivers published messages to consumers in the same process.
// Each message goes to exactly one consumer.
type MemoryClient struct {
	topic    string
	messages chan Message
}

// NewMemoryClient builds a bus holding up to buffer undelivered messages.
func NewMemoryClient(topic string, buffer int) *MemoryClient {
	if buffer <= 0 {
		buffer = 16
	}
	return &MemoryClient{topic: topic, messages: make(chan Message, buffer)}
}

// Publish blocks while the buffer is full.
func (m *MemoryClient) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		msg.Topic = m.topic
	}
	msg.Time = time.Now()
	select {
	case m.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryClient) Consume(ctx context.Context, handler Handler) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.messages:
			msg.Offset = offset
			offset++
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryClient) Topic() string { return m.topic }
