// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package rpc serves the gRPC surface of keyward: the standard health
// service, guarded by the auth gate.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/keyward/keyward/internal/authgate"
	"github.com/keyward/keyward/internal/observability"
)

// ServiceName is the health service name reported for the auth API.
const ServiceName = "keyward.auth.v1"

// DefaultReadinessInterval is how often WatchReadiness re-checks the
// directory.
const DefaultReadinessInterval = 5 * time.Second

// PublicMethods are reachable without a bearer token, so load balancers can
// check the server. Everything else, including the Watch stream, needs one.
var PublicMethods = []string{healthpb.Health_Check_FullMethodName}

// Server is the gRPC server.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	ready  observability.ReadinessChecker
	logger *slog.Logger
}

// NewServer creates a Server whose calls pass through gate. A nil ready
// check always reports serving.
func NewServer(gate *authgate.Gate, ready observability.ReadinessChecker, logger *slog.Logger) (*Server, error) {
	if gate == nil {
		return nil, oops.Code("RPC_INVALID").Errorf("auth gate is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	hs := health.NewServer()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(gate.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(gate.StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{srv: srv, health: hs, ready: ready, logger: logger}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return oops.Code("RPC_SERVE_FAILED").With("addr", lis.Addr().String()).Wrap(err)
	}
	return nil
}

// Refresh runs the readiness check once and publishes the result.
func (s *Server) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "grpc health not serving", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
}

// WatchReadiness calls Refresh every interval until ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReadinessInterval
	}
	s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls. Calls
// still running when ctx ends are cut off.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
		<-done
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
