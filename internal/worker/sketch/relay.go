package sketch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/feed"
	"github.com/Additional-Code/sketchbook/internal/messaging"
	"github.com/Additional-Code/sketchbook/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/sketchbook/worker/sketch")

// Module registers the change relay with the worker engine.
var Module = fx.Module("worker_sketch",
	fx.Provide(
		fx.Annotate(
			NewChangeRelay,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewChangeRelay forwards change events consumed from the topic to local feed
// listeners, so every process re-reads the collection after a write anywhere.
func NewChangeRelay(hub *feed.Hub, cfg config.Config, logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.sketches.relay", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		ev := feed.Decode(msg.Value)
		span.SetAttributes(attribute.String("sketch.op", string(ev.Op)), attribute.String("sketch.id", ev.ID))
		logger.Debug("sketch change relayed", zap.String("op", string(ev.Op)), zap.String("id", ev.ID))

		hub.Broadcast(ev)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
