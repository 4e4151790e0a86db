package grpcserver

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"access-center/auth"
	"access-center/interceptors"
)

// Server hosts the gRPC side of the service: the standard health checking
// protocol behind the logging and token-auth interceptor chain. Consul probes
// the health endpoint, so it stays public while everything else requires a
// valid, unrevoked access token.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
	port       int
}

func New(codec *auth.TokenCodec, blacklist auth.Blacklist, logger *zap.Logger, port int) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingInterceptor(logger),
			interceptors.AuthInterceptor(codec, blacklist),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger.Named("grpc"),
		port:       port,
	}
}

// Serve listens on the configured port and blocks until the server stops.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listening on grpc port %d: %w", s.port, err)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("gRPC server listening", zap.Int("port", s.port))
	return s.grpcServer.Serve(lis)
}

// Shutdown marks the health service as not serving and drains in-flight
// calls.
func (s *Server) Shutdown() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.grpcServer.GracefulStop()
	s.logger.Info("gRPC server stopped")
}
