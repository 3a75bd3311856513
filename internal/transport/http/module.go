package http

import (
	"go.uber.org/fx"

	sessiontransport "github.com/Additional-Code/sketchbook/internal/transport/http/session"
	sketchtransport "github.com/Additional-Code/sketchbook/internal/transport/http/sketch"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	sessiontransport.Module,
	sketchtransport.Module,
)
