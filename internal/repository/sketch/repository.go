package sketch

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/database"
	"github.com/Additional-Code/sketchbook/internal/entity"
	"github.com/Additional-Code/sketchbook/internal/feed"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/sketchbook/repository/sketch")

// Repository is the only component that talks to the sketches table.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	feed   feed.Feed
	logger *zap.Logger
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections, f feed.Feed, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		feed:   f,
		logger: logger,
	}
}

// ListAll returns every row, newest first. Read failures are logged and
// reported as an empty collection so callers never block on them.
func (r *Repository) ListAll(ctx context.Context) []entity.SketchRow {
	ctx, span := repoTracer.Start(ctx, "SketchRepository.ListAll")
	defer span.End()

	rows := make([]entity.SketchRow, 0)
	err := r.reader.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		r.logger.Error("failed to load sketches", zap.Error(err))
		return make([]entity.SketchRow, 0)
	}
	span.SetAttributes(attribute.Int("sketch.count", len(rows)))
	return rows
}

// Upsert inserts the row or replaces the existing row with the same id.
// created_at of an existing row is left as it was.
func (r *Repository) Upsert(ctx context.Context, row *entity.SketchRow) error {
	if row == nil {
		return errors.New("nil sketch")
	}
	if row.ID == "" {
		return errors.New("sketch id is required")
	}
	ctx, span := repoTracer.Start(ctx, "SketchRepository.Upsert", trace.WithAttributes(
		attribute.String("sketch.id", row.ID),
		attribute.String("sketch.order_number", row.OrderNumber),
	))
	defer span.End()

	q := r.writer.NewInsert().Model(row)
	if r.writer.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE")
		for _, col := range entity.UpdatableColumns {
			q = q.Set("? = VALUES(?)", bun.Ident(col), bun.Ident(col))
		}
	} else {
		q = q.On("CONFLICT (id) DO UPDATE")
		for _, col := range entity.UpdatableColumns {
			q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
		}
	}

	if _, err := q.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		r.logger.Error("failed to save sketch", zap.String("id", row.ID), zap.Error(err))
		return err
	}

	r.announce(ctx, feed.Event{Op: feed.OpUpsert, ID: row.ID})
	return nil
}

// DeleteByID removes the row with the given id. Missing ids are not an error.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "SketchRepository.DeleteByID", trace.WithAttributes(attribute.String("sketch.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.SketchRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		r.logger.Error("failed to delete sketch", zap.String("id", id), zap.Error(err))
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		span.SetAttributes(attribute.Int64("sketch.deleted", n))
	}

	r.announce(ctx, feed.Event{Op: feed.OpDelete, ID: id})
	return nil
}

// Subscribe calls onChange with a freshly listed collection every time the
// feed reports a change. On postgres the table trigger reports writes from
// any client; the other feeds only carry writes made through a Repository. The returned function releases the
// underlying channel.
func (r *Repository) Subscribe(ctx context.Context, onChange func([]entity.SketchRow)) (feed.Unsubscribe, error) {
	return r.feed.Listen(ctx, func(ctx context.Context, ev feed.Event) {
		r.logger.Debug("sketch change observed", zap.String("op", string(ev.Op)), zap.String("id", ev.ID))
		onChange(r.ListAll(ctx))
	})
}

func (r *Repository) announce(ctx context.Context, ev feed.Event) {
	if r.feed == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := r.feed.Announce(ctx, ev); err != nil {
		r.logger.Warn("failed to announce sketch change", zap.String("id", ev.ID), zap.Error(err))
	}
}
