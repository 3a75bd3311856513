package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/sketchbook/internal/config"
	sketchsvc "github.com/Additional-Code/sketchbook/internal/service/sketch"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

// StoreService is the health service name reported for the sketch store.
const StoreService = "sketchbook.SketchStore"

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(
		NewServer,
		health.NewServer,
		func(svc *sketchsvc.Service) Liveness { return svc },
	),
	fx.Invoke(RegisterHealth, Run),
)

// Liveness reports whether the store is receiving remote changes.
type Liveness interface {
	Live() bool
}

// NewServer builds a gRPC server with logging interceptors that also map
// application errors to status codes.
func NewServer(logger *zap.Logger) *grpc.Server {
	unary := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
			return resp, toStatus(err)
		}
		logger.Debug("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		return resp, nil
	}

	stream := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
			return toStatus(err)
		}
		logger.Debug("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		return nil
	}

	return grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary),
		grpc.ChainStreamInterceptor(stream),
	)
}

func toStatus(err error) error {
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	return status.Error(appErr.GRPCCode(), appErr.Message())
}

// RegisterHealth exposes the standard health service. The store reports
// NOT_SERVING until its live subscription is open.
func RegisterHealth(lc fx.Lifecycle, server *grpc.Server, hs *health.Server, live Liveness, logger *zap.Logger) {
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus(StoreService, healthpb.HealthCheckResponse_NOT_SERVING)

	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go watchLiveness(hs, live, time.Second, stop, logger)
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			hs.Shutdown()
			return nil
		},
	})
}

func watchLiveness(hs *health.Server, live Liveness, every time.Duration, stop <-chan struct{}, logger *zap.Logger) {
	current := healthpb.HealthCheckResponse_NOT_SERVING
	update := func() {
		next := healthpb.HealthCheckResponse_NOT_SERVING
		if live.Live() {
			next = healthpb.HealthCheckResponse_SERVING
		}
		if next != current {
			current = next
			hs.SetServingStatus(StoreService, next)
			logger.Info("sketch store health changed", zap.String("status", next.String()))
		}
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	update()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			update()
		}
	}
}

// Run binds the gRPC server to the configured host/port and manages lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Error("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		},
	})
}
