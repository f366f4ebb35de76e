package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service
const (
	serviceName          = "stressdost.v1.PopupGenerator"
	generatePopupMethod  = "/" + serviceName + "/GeneratePopup"
	generatorServiceFile = "stressdost/v1/generator.proto"
)

// GeneratorServer is the server side of the generation RPC. Requests and
// replies are structpb.Struct so the inference side needs no generated stubs.
type GeneratorServer interface {
	GeneratePopup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterGeneratorServer attaches srv to a gRPC server.
func RegisterGeneratorServer(s grpc.ServiceRegistrar, srv GeneratorServer) {
	s.RegisterService(&generatorServiceDesc, srv)
}

func generatePopupHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeneratorServer).GeneratePopup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generatePopupMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GeneratorServer).GeneratePopup(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var generatorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GeneratorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GeneratePopup", Handler: generatePopupHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: generatorServiceFile,
}

// #endregion service
