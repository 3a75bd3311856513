// Package auth guards the sketch interface with a single shared passcode.
// There are no users and no sessions: a caller either presents the passcode
// on each request or is turned away.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/presentation/http/response"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

const (
	// HeaderPasscode carries the passcode on API requests.
	HeaderPasscode = "X-Passcode"
	// QueryPasscode is accepted where headers cannot be set, such as EventSource.
	QueryPasscode = "passcode"
)

// Module provides the passcode gate to Fx.
var Module = fx.Provide(NewGate)

// Gate compares presented passcodes against the configured one.
type Gate struct {
	passcode []byte
	logger   *zap.Logger
}

// NewGate builds a Gate from configuration.
func NewGate(cfg config.Config, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Auth.UsingDefaultPass {
		logger.Warn("SKETCH_PASSCODE not set; using built-in passcode")
	}
	return &Gate{passcode: []byte(cfg.Auth.Passcode), logger: logger}
}

// Check returns nil when candidate matches the passcode.
func (g *Gate) Check(candidate string) error {
	if candidate == "" {
		return errorbank.Unauthorized("passcode is required")
	}
	if subtle.ConstantTimeCompare([]byte(candidate), g.passcode) != 1 {
		return errorbank.Unauthorized("invalid passcode")
	}
	return nil
}

// Middleware rejects requests that do not carry the passcode.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			candidate := strings.TrimSpace(c.Request().Header.Get(HeaderPasscode))
			if candidate == "" {
				candidate = c.QueryParam(QueryPasscode)
			}
			if err := g.Check(candidate); err != nil {
				g.logger.Debug("passcode rejected",
					zap.String("path", c.Path()),
					zap.String("remote", c.RealIP()))
				return response.New(c).WithError(err).Build()
			}
			return next(c)
		}
	}
}
