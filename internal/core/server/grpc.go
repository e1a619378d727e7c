// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/keyshift/internal/core/api"
	"github.com/solatis/keyshift/internal/core/auth"
	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/types"
)

// shutdownTimeout bounds GracefulStop before in-flight calls are cut.
const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config config.ServerConfig
	logger log.Logger
}

// NewGRPCServer creates the server with its interceptor chain and registers
// the transform and health services. authenticator may be nil to serve
// without API keys.
func NewGRPCServer(cfg config.ServerConfig, service api.TransformServer, authenticator *auth.Authenticator, logger log.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if cfg.RequireAuth && authenticator == nil {
		return nil, fmt.Errorf("authentication required but no authenticator configured")
	}
	logger = log.NewLogger(logger).WithFields(log.Fields{log.ModuleField: "server"})

	interceptors := []grpc.UnaryServerInterceptor{
		loggingInterceptor(logger),
		timeoutInterceptor(cfg.RequestTimeout),
	}
	if authenticator != nil {
		interceptors = append(interceptors, authenticator.UnaryInterceptor())
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxRecvMsgSize(types.MaxPayloadSize),
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)),
	)
	api.RegisterTransformServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.config.Addr(), err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.logger.Info("serving", log.Fields{"addr": listener.Addr().String()})
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks the server NOT_SERVING and stops it gracefully, forcing a
// stop when ctx ends or shutdownTimeout passes.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

func loggingInterceptor(logger log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := log.Fields{"method": info.FullMethod, "duration_ms": time.Since(start).Milliseconds()}
		if err != nil {
			logger.Warn(err, "request failed", fields)
		} else {
			logger.Debug("request served", fields)
		}
		return resp, err
	}
}
