package sketch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/cache"
	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/entity"
	"github.com/Additional-Code/sketchbook/internal/feed"
	"github.com/Additional-Code/sketchbook/internal/mapper"
	"github.com/Additional-Code/sketchbook/internal/model"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/sketchbook/service/sketch")
	serviceMeter  = otel.Meter("github.com/Additional-Code/sketchbook/service/sketch")
)

const collectionCacheKey = "sketches:all"

// Service is the store consumers use. It owns the most recently fetched
// collection; every successful call leaves that snapshot refreshed.
//
// Concurrent writes are not coordinated: each write is followed by a full
// re-read and whichever re-read finishes last defines the snapshot.
type Service struct {
	gateway  Gateway
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.RWMutex
	snapshot []model.Sketch

	watchMu   sync.Mutex
	watchers  map[uint64]func([]model.Sketch)
	nextWatch uint64

	liveMu     sync.Mutex
	live       feed.Unsubscribe
	liveCancel context.CancelFunc

	writes metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Gateway Gateway
	Cache   cache.Store
	Config  config.Config
	Logger  *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		gateway:  p.Gateway,
		cache:    p.Cache,
		cacheTTL: p.Config.Store.CacheTTL,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		snapshot: make([]model.Sketch, 0),
		watchers: make(map[uint64]func([]model.Sketch)),
	}
	s.initMetrics()
	return s
}

// GetAll returns the full collection, newest first.
func (s *Service) GetAll(ctx context.Context) ([]model.Sketch, error) {
	ctx, span := serviceTracer.Start(ctx, "SketchService.GetAll")
	defer span.End()

	if list, err := s.getFromCache(ctx); err == nil {
		s.setSnapshot(list)
		return clone(list), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("sketch cache read failed", zap.Error(err))
	}

	return s.refresh(ctx), nil
}

// Save validates and persists a sketch, then returns the refreshed collection.
// A sketch without an id is created; one with an id replaces the stored record.
func (s *Service) Save(ctx context.Context, sk model.Sketch) ([]model.Sketch, error) {
	if err := validate(&sk); err != nil {
		return nil, err
	}
	if sk.ID == "" {
		sk.ID = s.newID()
	}
	if sk.CreatedAt == 0 {
		sk.CreatedAt = s.now().UnixMilli()
	}

	ctx, span := serviceTracer.Start(ctx, "SketchService.Save", trace.WithAttributes(
		attribute.String("sketch.id", sk.ID),
		attribute.String("sketch.order_number", sk.OrderNumber),
	))
	defer span.End()

	row := mapper.ToRow(sk)
	if err := s.gateway.Upsert(ctx, &row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway error")
		s.recordWrite(ctx, "save", err)
		return nil, errorbank.Internal("failed to save sketch", errorbank.WithCause(err), errorbank.WithDetail("id", sk.ID))
	}
	s.recordWrite(ctx, "save", nil)

	s.invalidate(ctx)
	list := s.refresh(ctx)
	s.publish(list)
	return list, nil
}

// Delete removes a sketch by id and returns the refreshed collection.
// Unknown ids leave the collection unchanged.
func (s *Service) Delete(ctx context.Context, id string) ([]model.Sketch, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errorbank.Invalid("id", "sketch id is required")
	}

	ctx, span := serviceTracer.Start(ctx, "SketchService.Delete", trace.WithAttributes(attribute.String("sketch.id", id)))
	defer span.End()

	if err := s.gateway.DeleteByID(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway error")
		s.recordWrite(ctx, "delete", err)
		return nil, errorbank.Internal("failed to delete sketch", errorbank.WithCause(err), errorbank.WithDetail("id", id))
	}
	s.recordWrite(ctx, "delete", nil)

	s.invalidate(ctx)
	list := s.refresh(ctx)
	s.publish(list)
	return list, nil
}

// Subscribe forwards every remotely observed collection to fn after mapping
// it to the application model. The snapshot is updated before fn runs.
func (s *Service) Subscribe(ctx context.Context, fn func([]model.Sketch)) (func(), error) {
	unsubscribe, err := s.gateway.Subscribe(ctx, func(rows []entity.SketchRow) {
		list := mapper.FromRows(rows)
		s.invalidate(ctx)
		s.setSnapshot(list)
		s.storeInCache(ctx, list)
		s.publish(list)
		if fn != nil {
			fn(clone(list))
		}
	})
	if err != nil {
		return nil, errorbank.Internal("failed to subscribe to sketch changes", errorbank.WithCause(err))
	}
	return func() { unsubscribe() }, nil
}

// Start loads the collection and opens the live subscription that keeps the
// snapshot current. Calling Start again releases the previous subscription.
func (s *Service) Start(ctx context.Context) error {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()

	s.stopLocked()

	liveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	unsubscribe, err := s.Subscribe(liveCtx, nil)
	if err != nil {
		cancel()
		return err
	}
	s.live = unsubscribe
	s.liveCancel = cancel

	list, _ := s.GetAll(ctx)
	s.logger.Info("sketch store live", zap.Int("sketches", len(list)))
	return nil
}

// Stop releases the live subscription, if any.
func (s *Service) Stop() {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	s.stopLocked()
}

// Live reports whether the live subscription is open.
func (s *Service) Live() bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	return s.live != nil
}

func (s *Service) stopLocked() {
	if s.live != nil {
		s.live()
		s.live = nil
	}
	if s.liveCancel != nil {
		s.liveCancel()
		s.liveCancel = nil
	}
}

// Snapshot returns a copy of the last fetched collection.
func (s *Service) Snapshot() []model.Sketch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.snapshot)
}

// Watch calls fn with a copy of the collection after every write made
// through the service and every change observed by Subscribe. Reads do not
// notify watchers.
func (s *Service) Watch(fn func([]model.Sketch)) (cancel func()) {
	s.watchMu.Lock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *Service) refresh(ctx context.Context) []model.Sketch {
	list := mapper.FromRows(s.gateway.ListAll(ctx))
	s.setSnapshot(list)
	s.storeInCache(ctx, list)
	return clone(list)
}

func (s *Service) setSnapshot(list []model.Sketch) {
	s.mu.Lock()
	s.snapshot = clone(list)
	s.mu.Unlock()
}

func (s *Service) publish(list []model.Sketch) {
	s.watchMu.Lock()
	fns := make([]func([]model.Sketch), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(clone(list))
	}
}

func (s *Service) getFromCache(ctx context.Context) ([]model.Sketch, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, collectionCacheKey)
	if err != nil {
		return nil, err
	}
	var list []model.Sketch
	if err := json.Unmarshal(bytes, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) storeInCache(ctx context.Context, list []model.Sketch) {
	if s.cache == nil {
		return
	}
	bytes, err := json.Marshal(list)
	if err != nil {
		s.logger.Warn("marshal sketch collection", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, collectionCacheKey, bytes, s.cacheTTL); err != nil {
		s.logger.Warn("sketch cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, collectionCacheKey); err != nil {
		s.logger.Warn("sketch cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) initMetrics() {
	writes, err := serviceMeter.Int64Counter("sketch_writes_total",
		metric.WithDescription("Sketch writes by operation and result."))
	if err != nil {
		s.logger.Warn("register sketch write counter", zap.Error(err))
	} else {
		s.writes = writes
	}

	_, err = serviceMeter.Int64ObservableGauge("sketch_collection_size",
		metric.WithDescription("Number of sketches in the current snapshot."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s.mu.RLock()
			defer s.mu.RUnlock()
			o.Observe(int64(len(s.snapshot)))
			return nil
		}))
	if err != nil {
		s.logger.Warn("register sketch collection gauge", zap.Error(err))
	}
}

func (s *Service) recordWrite(ctx context.Context, op string, err error) {
	if s.writes == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))
}

func validate(sk *model.Sketch) error {
	if strings.TrimSpace(sk.OrderNumber) == "" {
		return errorbank.Invalid("orderNumber", "order number is required")
	}
	sk.ApplyDefaults()
	switch {
	case !sk.Gender.Valid():
		return invalidEnum("gender", string(sk.Gender))
	case !sk.Status.Valid():
		return invalidEnum("status", string(sk.Status))
	case !sk.PaymentStatus.Valid():
		return invalidEnum("paymentStatus", string(sk.PaymentStatus))
	case !sk.ProductionUnit.Valid():
		return invalidEnum("productionUnit", string(sk.ProductionUnit))
	}
	return nil
}

func invalidEnum(field, value string) error {
	return errorbank.Invalid(field, "invalid "+field, errorbank.WithDetail("value", value))
}

func clone(list []model.Sketch) []model.Sketch {
	out := make([]model.Sketch, len(list))
	copy(out, list)
	return out
}
