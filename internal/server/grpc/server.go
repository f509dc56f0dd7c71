package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophupload/internal/logging"
	"github.com/dmitrijs2005/gophupload/internal/server/services"
	"github.com/dmitrijs2005/gophupload/internal/uploadapi"
	"google.golang.org/grpc"
)

// UploadService is what the transport needs from the service layer.
type UploadService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
	Pending() int
}

type GRPCServer struct {
	uploadapi.UnimplementedUploadServiceServer
	address   string
	uploads   UploadService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us UploadService, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		uploads:   us,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.accessTokenInterceptor))

	uploadapi.RegisterUploadServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
