package grpcserver

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"contentBackend/internal/auth"
	"contentBackend/internal/service"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server exposing ContentService and the standard
// health service. Every method except Protected is reachable without a token.
func NewServer(issuer *auth.Issuer, accounts *service.Accounts, articles *service.Articles, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	allow := []string{healthCheckMethod}
	for _, m := range ContentServiceDesc.Methods {
		if m.MethodName != "Protected" {
			allow = append(allow, "/"+ServiceName+"/"+m.MethodName)
		}
	}
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(issuer, allow...)))

	RegisterContentServiceServer(srv, &ContentServer{Accounts: accounts, Articles: articles, Logger: logger})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// Start serves srv on addr and returns a shutdown function.
func Start(addr string, srv *grpc.Server, logger *slog.Logger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Plaintext; terminate TLS in front of the process.
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
