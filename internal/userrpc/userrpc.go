// Package userrpc is the gRPC contract of the user service.
//
// Messages are protobuf well-known types: identifiers travel as
// wrapperspb.StringValue, records as structpb.Struct. Typed helpers on
// both sides convert to and from User.
package userrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "multimarket.user.v1.UserService"

// Server is implemented by the user service.
type Server interface {
	CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	AuthenticateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetUser(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

func Register(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateUser", Server.CreateUser),
		unary("AuthenticateUser", Server.AuthenticateUser),
		unary("GetUser", Server.GetUser),
		unary("ValidateUser", Server.ValidateUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "multimarket/user/v1/user.proto",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(Server, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(Server), ctx, req.(*Req))
			})
		},
	}
}
