package sketch

import (
	"context"

	"go.uber.org/fx"

	repo "github.com/Additional-Code/sketchbook/internal/repository/sketch"
)

// Module provides the sketch store to Fx.
var Module = fx.Provide(
	func(r *repo.Repository) Gateway { return r },
	NewService,
)

// LiveModule keeps the store subscribed to remote changes for the lifetime
// of the application.
var LiveModule = fx.Invoke(registerLifecycle)

func registerLifecycle(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
		OnStop: func(context.Context) error {
			svc.Stop()
			return nil
		},
	})
}
