package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "cms.v1.ContentService"

// ContentServiceServer is the server API for cms.v1.ContentService.
// Requests and responses are JSON-shaped well-known types so the service
// needs no generated code.
type ContentServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Protected(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListArticles(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetArticle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateArticle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateArticle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteArticle(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

// ContentServiceDesc describes cms.v1.ContentService for grpc.ServiceRegistrar.
var ContentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", newStruct, ContentServiceServer.Register),
		unary("Login", newStruct, ContentServiceServer.Login),
		unary("Protected", newEmpty, ContentServiceServer.Protected),
		unary("ListArticles", newEmpty, ContentServiceServer.ListArticles),
		unary("GetArticle", newStruct, ContentServiceServer.GetArticle),
		unary("CreateArticle", newStruct, ContentServiceServer.CreateArticle),
		unary("UpdateArticle", newStruct, ContentServiceServer.UpdateArticle),
		unary("DeleteArticle", newStruct, ContentServiceServer.DeleteArticle),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterContentServiceServer registers srv on s.
func RegisterContentServiceServer(s grpc.ServiceRegistrar, srv ContentServiceServer) {
	s.RegisterService(&ContentServiceDesc, srv)
}

func unary[Req, Resp proto.Message](name string, newReq func() Req, call func(ContentServiceServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ContentServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			})
		},
	}
}
