// Package server hosts the daemon's gRPC surface: the standard health service
// (driven by dependency probes) and reflection for grpcurl.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health key reported for the splitter pipeline.
const ServiceName = "lcsplit.Splitter"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func New(logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	// NOT_SERVING until the first probe passes
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: gs, health: hs, logger: logger}
}

// GRPC exposes the underlying server for registering more services.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// SetServing flips both the overall and the splitter health status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Monitor runs probe every interval until ctx is done and mirrors the result
// into the health status. The first probe runs immediately.
func (s *Server) Monitor(ctx context.Context, probe Probe, interval, timeout time.Duration) {
	check := func() {
		pctx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := probe(pctx); err != nil {
			s.logger.Warn("health probe failed", "error", err)
			s.SetServing(false)
			return
		}
		s.SetServing(true)
	}
	check()
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC serving", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
