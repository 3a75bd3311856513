package session

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/sketchbook/internal/auth"
	"github.com/Additional-Code/sketchbook/internal/dto"
	"github.com/Additional-Code/sketchbook/internal/presentation/http/response"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

// Module wires the passcode check endpoint.
var Module = fx.Invoke(Register)

// Register exposes POST /session. It only verifies the passcode; nothing is
// stored server side.
func Register(e *echo.Echo, gate *auth.Gate) {
	e.POST("/session", func(c echo.Context) error {
		b := response.New(c)

		var payload dto.SessionRequest
		if err := c.Bind(&payload); err != nil {
			return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
		}
		if err := gate.Check(payload.Passcode); err != nil {
			return b.WithError(err).Build()
		}
		return b.WithData(dto.SessionResponse{Authenticated: true}).Build()
	})
}
