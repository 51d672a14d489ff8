package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarms.v1.AlarmService"

// Full method names used by clients.
const (
	CreateAlarmFullMethod    = "/" + ServiceName + "/CreateAlarm"
	GetAlarmFullMethod       = "/" + ServiceName + "/GetAlarm"
	GetAllAlarmsFullMethod   = "/" + ServiceName + "/GetAllAlarms"
	ClearAlarmFullMethod     = "/" + ServiceName + "/ClearAlarm"
	ClearAllAlarmsFullMethod = "/" + ServiceName + "/ClearAllAlarms"
	WatchAlarmsFullMethod    = "/" + ServiceName + "/WatchAlarms"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	CreateAlarm(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetAllAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	ClearAlarm(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	ClearAllAlarms(ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int64Value, error)
	WatchAlarms(req *emptypb.Empty, stream grpc.ServerStream) error
}

// ServiceDesc describes the alarm service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAlarm", Handler: createAlarmHandler},
		{MethodName: "GetAlarm", Handler: getAlarmHandler},
		{MethodName: "GetAllAlarms", Handler: getAllAlarmsHandler},
		{MethodName: "ClearAlarm", Handler: clearAlarmHandler},
		{MethodName: "ClearAllAlarms", Handler: clearAllAlarmsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchAlarms", Handler: watchAlarmsHandler, ServerStreams: true},
	},
	Metadata: "alarms/v1/alarm.proto",
}

// WatchAlarmsStreamDesc is the client-side descriptor of the WatchAlarms stream.
//
//nolint:gochecknoglobals // Mirrors ServiceDesc.
var WatchAlarmsStreamDesc = &ServiceDesc.Streams[0]

// RegisterAlarmServiceServer registers srv on the gRPC server.
func RegisterAlarmServiceServer(registrar grpc.ServiceRegistrar, srv AlarmServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// handleUnary decodes the request and runs call through the interceptor chain.
func handleUnary[Req any, Resp any](
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	fullMethod string,
	newRequest func() Req,
	call func(srv AlarmServiceServer, ctx context.Context, req Req) (Resp, error),
) (any, error) {
	in := newRequest()
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(AlarmServiceServer)

	if interceptor == nil {
		return call(server, ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: fullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		typed, _ := req.(Req)

		return call(server, ctx, typed)
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func createAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handleUnary(srv, ctx, dec, interceptor, CreateAlarmFullMethod,
		func() *structpb.Struct { return new(structpb.Struct) },
		func(s AlarmServiceServer, ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
			return s.CreateAlarm(ctx, req)
		})
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func getAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handleUnary(srv, ctx, dec, interceptor, GetAlarmFullMethod,
		func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
		func(s AlarmServiceServer, ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
			return s.GetAlarm(ctx, req)
		})
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func getAllAlarmsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handleUnary(srv, ctx, dec, interceptor, GetAllAlarmsFullMethod,
		func() *emptypb.Empty { return new(emptypb.Empty) },
		func(s AlarmServiceServer, ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error) {
			return s.GetAllAlarms(ctx, req)
		})
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func clearAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handleUnary(srv, ctx, dec, interceptor, ClearAlarmFullMethod,
		func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
		func(s AlarmServiceServer, ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
			return s.ClearAlarm(ctx, req)
		})
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func clearAllAlarmsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handleUnary(srv, ctx, dec, interceptor, ClearAllAlarmsFullMethod,
		func() *emptypb.Empty { return new(emptypb.Empty) },
		func(s AlarmServiceServer, ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int64Value, error) {
			return s.ClearAllAlarms(ctx, req)
		})
}

// watchAlarmsHandler reads the single request message and hands the stream to the server.
func watchAlarmsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(AlarmServiceServer)

	return server.WatchAlarms(in, stream)
}
