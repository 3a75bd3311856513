package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

// Hub fans events out to in-process listeners.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]*hubListener
	next      uint64
	buffer    int
	logger    *zap.Logger
}

type hubListener struct {
	events chan Event
	done   chan struct{}
}

// NewHub creates an empty hub sized from configuration.
func NewHub(cfg config.Config, logger *zap.Logger) *Hub {
	buffer := cfg.Feed.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		listeners: make(map[uint64]*hubListener),
		buffer:    buffer,
		logger:    logger,
	}
}

// Announce broadcasts ev to every listener.
func (h *Hub) Announce(_ context.Context, ev Event) error {
	h.Broadcast(ev)
	return nil
}

// Broadcast delivers ev without blocking. A full buffer already holds a
// pending change for that listener, so the event is dropped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, l := range h.listeners {
		select {
		case l.events <- ev:
		default:
			h.logger.Debug("feed listener busy; coalescing event", zap.Uint64("listener", id))
		}
	}
}

// Listen registers fn until the returned Unsubscribe is called or ctx ends.
func (h *Hub) Listen(ctx context.Context, fn Listener) (Unsubscribe, error) {
	l := &hubListener{
		events: make(chan Event, h.buffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.next++
	id := h.next
	h.listeners[id] = l
	total := len(h.listeners)
	h.mu.Unlock()

	h.logger.Debug("feed listener registered", zap.Uint64("listener", id), zap.Int("total", total))

	go func() {
		for {
			select {
			case <-l.done:
				return
			case <-ctx.Done():
				h.remove(id)
				return
			case ev := <-l.events:
				fn(ctx, ev)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { h.remove(id) }) }, nil
}

// Len reports the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.listeners[id]; ok {
		close(l.done)
		delete(h.listeners, id)
		h.logger.Debug("feed listener released", zap.Uint64("listener", id), zap.Int("total", len(h.listeners)))
	}
}
