package health

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server reports serving status of the named services over the standard gRPC
// health protocol, so orchestrators can probe the API without HTTP.
type Server struct {
	gs       *grpc.Server
	hs       *health.Server
	services []string
}

func Run(addr string, services ...string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(lis, services...), nil
}

func Serve(lis net.Listener, services ...string) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	for _, svc := range services {
		hs.SetServingStatus(svc, healthpb.HealthCheckResponse_SERVING)
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	go func() {
		_ = gs.Serve(lis)
	}()
	return &Server{gs: gs, hs: hs, services: services}
}

// Stop flips every service to NOT_SERVING before draining connections.
func (s *Server) Stop() {
	s.hs.Shutdown()
	s.gs.GracefulStop()
}
