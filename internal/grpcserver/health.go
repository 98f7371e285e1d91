package grpcserver

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

// Server exposes grpc.health.v1.Health for the store. The empty service name
// and serviceName both report the process status.
type Server struct {
	grpc        *grpc.Server
	health      *health.Server
	serviceName string
}

func New(serviceName string) *Server {
	s := &Server{
		grpc:        grpc.NewServer(),
		health:      health.NewServer(),
		serviceName: serviceName,
	}
	grpc_health_v1.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	telemetry.Logger.Info("gRPC health server starting", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.serviceName, status)
}
