package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const DefaultAdminRole = "ADMIN"

type GRPCServer struct {
	address   string
	lifecycle Lifecycle
	sessions  Sessions
	logger    logging.Logger
	protected map[string]string
}

var _ AccountServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, lifecycle Lifecycle, sessions Sessions, adminRole string) *GRPCServer {
	if adminRole == "" {
		adminRole = DefaultAdminRole
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		lifecycle: lifecycle,
		sessions:  sessions,
		protected: protectedMethods(adminRole),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	RegisterAccountServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
