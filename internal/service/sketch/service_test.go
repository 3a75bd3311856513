package sketch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/cache"
	"github.com/Additional-Code/sketchbook/internal/entity"
	"github.com/Additional-Code/sketchbook/internal/feed"
	"github.com/Additional-Code/sketchbook/internal/mapper"
	"github.com/Additional-Code/sketchbook/internal/model"
	repo "github.com/Additional-Code/sketchbook/internal/repository/sketch"
	mock_sketch "github.com/Additional-Code/sketchbook/internal/service/sketch/mocks"
	"github.com/Additional-Code/sketchbook/internal/testutil"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

func newStoreService(t *testing.T) (*Service, *feed.Hub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.Config()
	hub := feed.NewHub(cfg, zap.NewNop())
	r := repo.NewRepository(testutil.Connections(db), hub, zap.NewNop())
	svc := NewService(Params{Gateway: r, Cache: cache.NewMemoryStore(0), Config: cfg, Logger: zap.NewNop()})
	t.Cleanup(svc.Stop)
	return svc, hub
}

func newMockService(t *testing.T) (*Service, *mock_sketch.MockGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mock_sketch.NewMockGateway(ctrl)
	svc := NewService(Params{Gateway: gw, Cache: cache.NewMemoryStore(0), Config: testutil.Config(), Logger: zap.NewNop()})
	return svc, gw
}

func TestService_SaveSameIDKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t)

	sk := testutil.Sketch("s1", "ORD-1", 0)
	sk.DesignerName = "Bilal"
	_, err := svc.Save(ctx, sk)
	require.NoError(t, err)

	sk.DesignerName = "Sana"
	list, err := svc.Save(ctx, sk)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "Sana", list[0].DesignerName)
	assert.Equal(t, list, svc.Snapshot())
}

func TestService_SaveWithoutIDGeneratesOne(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t)
	svc.now = func() time.Time { return time.UnixMilli(1740825000123) }

	sk := testutil.Sketch("", "ORD-1", 0)
	list, err := svc.Save(ctx, sk)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].ID)
	assert.Equal(t, int64(1740825000123), list[0].CreatedAt)

	list, err = svc.Save(ctx, testutil.Sketch("", "ORD-2", 0))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEqual(t, list[0].ID, list[1].ID)
}

func TestService_SaveAppliesFormDefaults(t *testing.T) {
	svc, _ := newStoreService(t)

	list, err := svc.Save(context.Background(), model.Sketch{OrderNumber: "ORD-9"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.GenderGents, list[0].Gender)
	assert.Equal(t, model.StatusProcessing, list[0].Status)
	assert.Equal(t, model.PaymentPending, list[0].PaymentStatus)
	assert.Equal(t, model.UnitMNRProduction, list[0].ProductionUnit)
}

func TestService_SaveValidation(t *testing.T) {
	tests := []struct {
		name   string
		sketch model.Sketch
		field  string
	}{
		{name: "blank order number", sketch: model.Sketch{OrderNumber: "   "}, field: "orderNumber"},
		{name: "unknown gender", sketch: model.Sketch{OrderNumber: "A", Gender: "KIDS"}, field: "gender"},
		{name: "unknown status", sketch: model.Sketch{OrderNumber: "A", Status: "LOST"}, field: "status"},
		{name: "unknown payment", sketch: model.Sketch{OrderNumber: "A", PaymentStatus: "PARTIAL"}, field: "paymentStatus"},
		{name: "unknown unit", sketch: model.Sketch{OrderNumber: "A", ProductionUnit: "ELSEWHERE"}, field: "productionUnit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No gateway expectations: validation fails before any remote call.
			svc, _ := newMockService(t)

			_, err := svc.Save(context.Background(), tt.sketch)
			require.Error(t, err)
			assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
			assert.Equal(t, tt.field, errorbank.Field(err))
		})
	}
}

func TestService_WriteFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, gw := newMockService(t)

	existing := mapper.ToRow(testutil.Sketch("s1", "ORD-1", 100))
	gw.EXPECT().ListAll(gomock.Any()).Return([]entity.SketchRow{existing})
	before, err := svc.GetAll(ctx)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	gw.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(boom)
	_, err = svc.Save(ctx, testutil.Sketch("s2", "ORD-2", 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
	assert.Equal(t, before, svc.Snapshot())

	gw.EXPECT().DeleteByID(gomock.Any(), "s1").Return(boom)
	_, err = svc.Delete(ctx, "s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, svc.Snapshot())
}

// A failed read surfaces as an empty collection rather than an error. This is
// the documented read policy, kept for compatibility rather than assumed correct.
func TestService_ReadFailureIsEmpty(t *testing.T) {
	svc, gw := newMockService(t)
	gw.EXPECT().ListAll(gomock.Any()).Return([]entity.SketchRow{})

	list, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestService_GetAllServesFromCache(t *testing.T) {
	ctx := context.Background()
	svc, gw := newMockService(t)

	rows := []entity.SketchRow{mapper.ToRow(testutil.Sketch("s1", "ORD-1", 100))}
	gw.EXPECT().ListAll(gomock.Any()).Return(rows).Times(1)

	first, err := svc.GetAll(ctx)
	require.NoError(t, err)
	second, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	gw.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().ListAll(gomock.Any()).Return(rows).Times(1)
	_, err = svc.Save(ctx, testutil.Sketch("s1", "ORD-1", 100))
	require.NoError(t, err)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t)

	_, err := svc.Save(ctx, testutil.Sketch("s1", "ORD-1", 100))
	require.NoError(t, err)

	list, err := svc.Delete(ctx, "missing")
	require.NoError(t, err, "deleting an unknown id is a no-op")
	assert.Len(t, list, 1)

	list, err = svc.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Delete(ctx, " ")
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestService_WatchSeesEveryWrite(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t)

	var sizes []int
	cancel := svc.Watch(func(list []model.Sketch) { sizes = append(sizes, len(list)) })

	_, err := svc.Save(ctx, testutil.Sketch("s1", "ORD-1", 100))
	require.NoError(t, err)
	_, err = svc.Save(ctx, testutil.Sketch("s2", "ORD-2", 200))
	require.NoError(t, err)

	cancel()
	_, err = svc.Delete(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, sizes)
}

func TestService_GetAllDoesNotNotifyWatchers(t *testing.T) {
	ctx := context.Background()
	svc, gw := newMockService(t)

	rows := []entity.SketchRow{mapper.ToRow(testutil.Sketch("s1", "ORD-1", 100))}
	gw.EXPECT().ListAll(gomock.Any()).Return(rows).Times(1)

	calls := 0
	cancel := svc.Watch(func([]model.Sketch) { calls++ })
	defer cancel()

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)

	assert.Zero(t, calls, "cache miss and cache hit are both plain reads")
	assert.Len(t, svc.Snapshot(), 1)
}

func TestService_SubscribeDeliversRemoteChanges(t *testing.T) {
	ctx := context.Background()
	svc, hub := newStoreService(t)

	got := make(chan []model.Sketch, 8)
	unsubscribe, err := svc.Subscribe(ctx, func(list []model.Sketch) { got <- list })
	require.NoError(t, err)
	defer unsubscribe()

	_, err = svc.Save(ctx, testutil.Sketch("s1", "ORD-1", 100))
	require.NoError(t, err)

	select {
	case list := <-got:
		require.Len(t, list, 1)
		assert.Equal(t, "ORD-1", list[0].OrderNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("no collection delivered")
	}

	hub.Broadcast(feed.Event{Op: feed.OpUnknown})
	select {
	case list := <-got:
		assert.Len(t, list, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no collection delivered after external change")
	}
}

func TestService_StartTwiceKeepsSingleListener(t *testing.T) {
	ctx := context.Background()
	svc, hub := newStoreService(t)

	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Start(ctx))
	assert.True(t, svc.Live())
	assert.Equal(t, 1, hub.Len())

	svc.Stop()
	assert.False(t, svc.Live())
	assert.Equal(t, 0, hub.Len())
}

func TestService_StartLoadsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t)
	_, err := svc.Save(ctx, testutil.Sketch("s1", "ORD-1", 100))
	require.NoError(t, err)

	require.NoError(t, svc.Start(ctx))
	assert.Len(t, svc.Snapshot(), 1)
}
