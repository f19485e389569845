package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// PunchServiceName is the fully qualified gRPC service name.
const PunchServiceName = "timeclock.v1.PunchService"

const (
	PunchService_CheckIn_FullMethodName  = "/" + PunchServiceName + "/CheckIn"
	PunchService_CheckOut_FullMethodName = "/" + PunchServiceName + "/CheckOut"
	PunchService_Today_FullMethodName    = "/" + PunchServiceName + "/Today"
)

// PunchServiceServer is the server API for the kiosk punch service. Messages
// are google.protobuf.Struct so kiosks need no generated stubs.
type PunchServiceServer interface {
	CheckIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckOut(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Today(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterPunchServiceServer(s grpc.ServiceRegistrar, srv PunchServiceServer) {
	s.RegisterService(&PunchService_ServiceDesc, srv)
}

// unaryHandler adapts a PunchServiceServer method to grpc.MethodDesc.Handler.
func unaryHandler(fullMethod string, call func(PunchServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PunchServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PunchServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var PunchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PunchServiceName,
	HandlerType: (*PunchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CheckIn",
			Handler:    unaryHandler(PunchService_CheckIn_FullMethodName, PunchServiceServer.CheckIn),
		},
		{
			MethodName: "CheckOut",
			Handler:    unaryHandler(PunchService_CheckOut_FullMethodName, PunchServiceServer.CheckOut),
		},
		{
			MethodName: "Today",
			Handler:    unaryHandler(PunchService_Today_FullMethodName, PunchServiceServer.Today),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timeclock/v1/punch.proto",
}
