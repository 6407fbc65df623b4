package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name the notifier reports under.
const ServiceName = "kunenadiscord.Notifier"

// HealthServer exposes the standard gRPC health protocol for orchestration probes.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
	log    zerolog.Logger
}

// NewHealthServer listens on addr. Status starts as NOT_SERVING.
func NewHealthServer(addr string, log zerolog.Logger) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{server: srv, health: hs, lis: lis, log: log}, nil
}

// Addr returns the bound address.
func (s *HealthServer) Addr() string {
	return s.lis.Addr().String()
}

// Start serves in the background.
func (s *HealthServer) Start() {
	go func() {
		s.log.Info().Str("addr", s.Addr()).Msg("gRPC health server started")
		if err := s.server.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()
}

// SetServing flips the overall and service status.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop marks the service as shutting down and stops gracefully until ctx expires.
func (s *HealthServer) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}
