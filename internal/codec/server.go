package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server
// CodecServer is implemented by an inference sidecar. The Go side only needs
// it for in-process fakes and local development.
type CodecServer interface {
	Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes companion.CodecService without generated code.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "companion.CodecService",
	HandlerType: (*CodecServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "companion/codec.proto",
}

// RegisterCodecServer attaches srv to s.
func RegisterCodecServer(s grpc.ServiceRegistrar, srv CodecServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func generateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := &structpb.Struct{}
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CodecServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CodecServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion server
