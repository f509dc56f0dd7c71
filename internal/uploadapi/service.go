package uploadapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "gophupload.upload.UploadService"

	UploadChunkFullMethod = "/" + ServiceName + "/UploadChunk"
	PingFullMethod        = "/" + ServiceName + "/Ping"
)

// UploadServiceServer is implemented by the gRPC transport.
type UploadServiceServer interface {
	UploadChunk(context.Context, *UploadChunkRequest) (*UploadChunkResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedUploadServiceServer can be embedded to satisfy the interface
// partially.
type UnimplementedUploadServiceServer struct{}

func (UnimplementedUploadServiceServer) UploadChunk(context.Context, *UploadChunkRequest) (*UploadChunkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UploadChunk not implemented")
}

func (UnimplementedUploadServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterUploadServiceServer(s grpc.ServiceRegistrar, srv UploadServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func uploadChunkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UploadChunkRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UploadServiceServer).UploadChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UploadChunkFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UploadServiceServer).UploadChunk(ctx, req.(*UploadChunkRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UploadServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UploadServiceServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes UploadService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UploadServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UploadChunk", Handler: uploadChunkHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "uploadapi/service.go",
}

// UploadServiceClient is the client side of UploadService.
type UploadServiceClient interface {
	UploadChunk(ctx context.Context, in *UploadChunkRequest, opts ...grpc.CallOption) (*UploadChunkResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type uploadServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUploadServiceClient returns a client that always selects the JSON codec.
func NewUploadServiceClient(cc grpc.ClientConnInterface) UploadServiceClient {
	return &uploadServiceClient{cc: cc}
}

func (c *uploadServiceClient) UploadChunk(ctx context.Context, in *UploadChunkRequest, opts ...grpc.CallOption) (*UploadChunkResponse, error) {
	out := new(UploadChunkResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, UploadChunkFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *uploadServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, PingFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
