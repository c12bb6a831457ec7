package grpc

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/weiawesome/wes-support-chat/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") health status.
const ServiceName = "support.chat"

// Server exposes grpc.health.v1 for orchestrator probes.
type Server struct {
	server *grpc.Server
	health *health.Server
}

func NewServer(logger zerolog.Logger) *Server {
	healthMethod := "/" + healthpb.Health_ServiceDesc.ServiceName + "/"
	s := grpc.NewServer(
		grpc.UnaryInterceptor(log.UnaryServerInterceptor(logger, healthMethod+"Check")),
		grpc.StreamInterceptor(log.StreamServerInterceptor(logger, healthMethod+"Watch")),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	srv := &Server{server: s, health: hs}
	srv.SetServing(true)
	return srv
}

// SetServing flips both the overall and the named service status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until the listener fails or the server stops.
func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Shutdown reports NOT_SERVING to watchers, then drains in-flight calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func StartGRPCServer(addr string, logger zerolog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := NewServer(logger)
	go func() {
		l := log.L()
		l.Info().Str("address", addr).Msg("grpc health server listening")
		if err := srv.Serve(lis); err != nil {
			l.Error().Err(err).Msg("grpc server error")
		}
	}()

	return srv, nil
}
