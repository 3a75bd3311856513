package seeder

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/model"
	sketchsvc "github.com/Additional-Code/sketchbook/internal/service/sketch"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads sample sketches for local/dev setups.
type Seeder struct {
	store  *sketchsvc.Service
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder that writes through the sketch store.
func New(store *sketchsvc.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, logger: logger, now: time.Now}
}

// Samples returns the seed sketches. Ids are fixed so seeding twice does not
// duplicate them.
func Samples(now time.Time) []model.Sketch {
	at := func(hoursAgo int) int64 {
		return now.Add(-time.Duration(hoursAgo) * time.Hour).UnixMilli()
	}
	return []model.Sketch{
		{
			ID: "seed-0001", OrderNumber: "MNR-1001", Gender: model.GenderGents,
			Status: model.StatusProcessing, DesignerName: "Bilal",
			PaymentStatus: model.PaymentPending, ProductionUnit: model.UnitMNRProduction,
			ImportDate: "2025-03-01", ProcessingItems: "12", CompletedItems: "4",
			CreatedAt: at(1),
		},
		{
			ID: "seed-0002", OrderNumber: "HS-2040", Gender: model.GenderLadies,
			Status: model.StatusProcessing, DesignerName: "Sana",
			PaymentStatus: model.PaymentHalf, PaymentAmount: "15000", ProductionUnit: model.UnitHafizSahib,
			ImportDate: "2025-02-26", ProcessingItems: "8",
			CreatedAt: at(5),
		},
		{
			ID: "seed-0003", OrderNumber: "RP-3310", Gender: model.GenderGents,
			Status: model.StatusDelivered, DesignerName: "Ayesha",
			PaymentStatus: model.PaymentComplete, PaymentAmount: "42000", ProductionUnit: model.UnitRanaPlaza,
			ImportDate: "2025-02-10", ExportDate: "2025-02-24", CompletedItems: "20",
			CreatedAt: at(30),
		},
		{
			ID: "seed-0004", OrderNumber: "MNR-1002", Gender: model.GenderLadies,
			Status: model.StatusDelivered, DesignerName: "Bilal",
			PaymentStatus: model.PaymentHalf, PaymentAmount: "9000", ProductionUnit: model.UnitMNRProduction,
			ImportDate: "2025-02-14", ExportDate: "2025-02-28", CompletedItems: "6",
			CreatedAt: at(52),
		},
	}
}

// Sketches saves every sample that is not already stored.
func (s *Seeder) Sketches(ctx context.Context) (int, error) {
	existing, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, sk := range existing {
		have[sk.ID] = struct{}{}
	}

	added := 0
	for _, sample := range Samples(s.now()) {
		if _, ok := have[sample.ID]; ok {
			continue
		}
		if _, err := s.store.Save(ctx, sample); err != nil {
			return added, err
		}
		added++
	}

	s.logger.Info("seeded sketches", zap.Int("added", added), zap.Int("skipped", len(have)))
	return added, nil
}
