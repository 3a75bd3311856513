package sketch

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/sketchbook/internal/auth"
)

// Module wires HTTP sketch handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, gate *auth.Gate) {
		Register(e, h, gate)
	}),
)
