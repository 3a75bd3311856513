package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/sketchbook/internal/auth"
	"github.com/Additional-Code/sketchbook/internal/cache"
	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/database"
	"github.com/Additional-Code/sketchbook/internal/feed"
	"github.com/Additional-Code/sketchbook/internal/logger"
	"github.com/Additional-Code/sketchbook/internal/messaging"
	"github.com/Additional-Code/sketchbook/internal/observability"
	repositorysketch "github.com/Additional-Code/sketchbook/internal/repository/sketch"
	grpcserver "github.com/Additional-Code/sketchbook/internal/server/grpc"
	httpserver "github.com/Additional-Code/sketchbook/internal/server/http"
	servicesketch "github.com/Additional-Code/sketchbook/internal/service/sketch"
	transporthttp "github.com/Additional-Code/sketchbook/internal/transport/http"
	"github.com/Additional-Code/sketchbook/internal/worker"
	workersketch "github.com/Additional-Code/sketchbook/internal/worker/sketch"
)

// Storage is the minimum needed to reach the database.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Storage,
	cache.Module,
	messaging.Module,
	observability.Module,
	feed.Module,
	repositorysketch.Module,
	servicesketch.Module,
)

// HTTP serves the API and gRPC health on top of the core modules, keeps the
// store live, and relays bus change events to local listeners.
var HTTP = fx.Options(
	Core,
	auth.Module,
	servicesketch.LiveModule,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	worker.Module,
	workersketch.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workersketch.Module,
)

// Module is the default application wiring.
var Module = HTTP
