package sketch

import (
	"context"

	"github.com/Additional-Code/sketchbook/internal/entity"
	"github.com/Additional-Code/sketchbook/internal/feed"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mock_sketch

// Gateway is the remote table access the service depends on.
type Gateway interface {
	ListAll(ctx context.Context) []entity.SketchRow
	Upsert(ctx context.Context, row *entity.SketchRow) error
	DeleteByID(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onChange func([]entity.SketchRow)) (feed.Unsubscribe, error)
}
