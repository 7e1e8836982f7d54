package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName: имя сервиса в протоколе grpc.health.v1.
const ServiceName = "inventory.v1.Inventory"

// GRPCServer отдаёт стандартный health-check для балансировщиков и оркестратора.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	cfg    *cfg.GRPCConfig
	logger logger.Logger
}

func NewGRPCServer(cfg *cfg.GRPCConfig, logger logger.Logger) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &GRPCServer{
		server: srv,
		health: hs,
		cfg:    cfg,
		logger: logger,
	}
}

// SetServing переключает статус сервиса и общий статус сервера.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	lis, err := net.Listen(s.cfg.NetworkMode, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.SetServing(true)
	return s.server.Serve(lis)
}

// Stop сначала объявляет NOT_SERVING, затем дожидается открытых вызовов.
func (s *GRPCServer) Stop(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infof("gRPC server stopped gracefully")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warnf("gRPC server forced to stop after timeout")
		return ctx.Err()
	}
}
