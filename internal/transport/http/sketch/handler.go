package sketch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/auth"
	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/dto"
	"github.com/Additional-Code/sketchbook/internal/model"
	"github.com/Additional-Code/sketchbook/internal/presentation/http/response"
	service "github.com/Additional-Code/sketchbook/internal/service/sketch"
	"github.com/Additional-Code/sketchbook/internal/view"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sketchbook/transport/http/sketch")

const defaultHeartbeat = 30 * time.Second

// Handler exposes sketch endpoints over HTTP.
type Handler struct {
	svc       *service.Service
	pageSize  int
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewHandler constructs a sketch Handler.
func NewHandler(svc *service.Service, cfg config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:       svc,
		pageSize:  cfg.Store.PageSize,
		heartbeat: defaultHeartbeat,
		logger:    logger,
	}
}

// Register routes behind the passcode gate.
func Register(e *echo.Echo, h *Handler, gate *auth.Gate) {
	g := e.Group("/sketches", gate.Middleware())
	g.GET("", h.list)
	g.GET("/counts", h.counts)
	g.GET("/stream", h.stream)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	kind, err := view.ParseKind(c.QueryParam("filter"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid filter", errorbank.WithCause(err), errorbank.WithDetail("filter", c.QueryParam("filter")))).Build()
	}
	limit := h.pageSize
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return b.WithError(errorbank.BadRequest("invalid limit", errorbank.WithDetail("limit", raw))).Build()
		}
	}
	f := view.Filter{
		Query:    c.QueryParam("q"),
		Kind:     kind,
		Designer: c.QueryParam("designer"),
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sketches.list", trace.WithAttributes(
		attribute.String("sketch.filter", string(f.Kind)),
		attribute.Bool("sketch.query", f.Query != ""),
	))
	defer span.End()

	all, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	filtered := view.Apply(all, f)
	return b.WithData(dto.SketchListResponse{
		Items:  view.Page(filtered, limit),
		Total:  len(filtered),
		Counts: view.Count(all),
	}).WithMeta("limit", limit).Build()
}

func (h *Handler) counts(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "sketches.counts")
	defer span.End()

	all, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(view.Count(all)).Build()
}

func (h *Handler) create(c echo.Context) error {
	return h.save(c, "", http.StatusCreated)
}

func (h *Handler) update(c echo.Context) error {
	return h.save(c, c.Param("id"), http.StatusOK)
}

func (h *Handler) save(c echo.Context, id string, status int) error {
	b := response.New(c)

	var payload dto.SketchRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	sk := payload.ToModel()
	if id != "" {
		sk.ID = id
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sketches.save", trace.WithAttributes(
		attribute.String("sketch.id", sk.ID),
		attribute.String("sketch.order_number", sk.OrderNumber),
	))
	defer span.End()

	all, err := h.svc.Save(ctx, sk)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(status).WithData(h.firstPage(all)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "sketches.delete", trace.WithAttributes(attribute.String("sketch.id", id)))
	defer span.End()

	all, err := h.svc.Delete(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(h.firstPage(all)).Build()
}

// stream pushes the full collection as a "snapshot" event on connect and
// after every change until the client goes away.
func (h *Handler) stream(c echo.Context) error {
	ctx := c.Request().Context()

	updates := make(chan []model.Sketch, 1)
	cancel := h.svc.Watch(func(list []model.Sketch) {
		for {
			select {
			case updates <- list:
				return
			default:
			}
			// Replace a pending collection nobody has sent yet.
			select {
			case <-updates:
			default:
			}
		}
	})
	defer cancel()

	initial, err := h.svc.GetAll(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.writeSnapshot(w, initial); err != nil {
		return nil
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case list := <-updates:
			if err := h.writeSnapshot(w, list); err != nil {
				h.logger.Debug("sketch stream closed", zap.Error(err))
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Handler) writeSnapshot(w *echo.Response, list []model.Sketch) error {
	data, err := json.Marshal(dto.SketchListResponse{
		Items:  list,
		Total:  len(list),
		Counts: view.Count(list),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func (h *Handler) firstPage(all []model.Sketch) dto.SketchListResponse {
	return dto.SketchListResponse{
		Items:  view.Page(all, h.pageSize),
		Total:  len(all),
		Counts: view.Count(all),
	}
}
