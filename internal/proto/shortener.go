package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const serviceName = "shortener.ShortenerService"

type ShortenRequest struct {
	Url    string `json:"url"`
	Length int32  `json:"length,omitempty"`
}

type ExpandRequest struct {
	Id string `json:"id"`
}

type UpdateRequest struct {
	Id  string `json:"id"`
	Url string `json:"url"`
}

type DeleteRequest struct {
	Id string `json:"id"`
}

type LinkResponse struct {
	Id    string `json:"id"`
	Url   string `json:"url"`
	Owner string `json:"owner,omitempty"`
}

type ListResponse struct {
	Links []*LinkResponse `json:"links"`
}

type DeleteAllResponse struct {
	Removed int64 `json:"removed"`
}

// ShortenerServiceServer is the server API for ShortenerService service.
type ShortenerServiceServer interface {
	Shorten(context.Context, *ShortenRequest) (*LinkResponse, error)
	Expand(context.Context, *ExpandRequest) (*LinkResponse, error)
	Update(context.Context, *UpdateRequest) (*LinkResponse, error)
	Delete(context.Context, *DeleteRequest) (*emptypb.Empty, error)
	List(context.Context, *emptypb.Empty) (*ListResponse, error)
	DeleteAll(context.Context, *emptypb.Empty) (*DeleteAllResponse, error)
}

// UnimplementedShortenerServiceServer can be embedded to have forward compatible implementations.
type UnimplementedShortenerServiceServer struct{}

func (UnimplementedShortenerServiceServer) Shorten(context.Context, *ShortenRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Shorten not implemented")
}
func (UnimplementedShortenerServiceServer) Expand(context.Context, *ExpandRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Expand not implemented")
}
func (UnimplementedShortenerServiceServer) Update(context.Context, *UpdateRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedShortenerServiceServer) Delete(context.Context, *DeleteRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedShortenerServiceServer) List(context.Context, *emptypb.Empty) (*ListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}
func (UnimplementedShortenerServiceServer) DeleteAll(context.Context, *emptypb.Empty) (*DeleteAllResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAll not implemented")
}

func RegisterShortenerServiceServer(s grpc.ServiceRegistrar, srv ShortenerServiceServer) {
	s.RegisterService(&_ShortenerService_serviceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodDesc.Handler.
func unaryHandler[Req any, Resp any](method string, call func(ShortenerServiceServer, context.Context, *Req) (Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + serviceName + "/" + method

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ShortenerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ShortenerService_serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShortenerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    unaryHandler("Shorten", ShortenerServiceServer.Shorten),
		},
		{
			MethodName: "Expand",
			Handler:    unaryHandler("Expand", ShortenerServiceServer.Expand),
		},
		{
			MethodName: "Update",
			Handler:    unaryHandler("Update", ShortenerServiceServer.Update),
		},
		{
			MethodName: "Delete",
			Handler:    unaryHandler("Delete", ShortenerServiceServer.Delete),
		},
		{
			MethodName: "List",
			Handler:    unaryHandler("List", ShortenerServiceServer.List),
		},
		{
			MethodName: "DeleteAll",
			Handler:    unaryHandler("DeleteAll", ShortenerServiceServer.DeleteAll),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortener.proto",
}

// ShortenerServiceClient is the client API for ShortenerService service.
type ShortenerServiceClient interface {
	Shorten(ctx context.Context, in *ShortenRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Expand(ctx context.Context, in *ExpandRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListResponse, error)
	DeleteAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DeleteAllResponse, error)
}

type shortenerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewShortenerServiceClient returns a client that speaks the JSON codec.
func NewShortenerServiceClient(cc grpc.ClientConnInterface) ShortenerServiceClient {
	return &shortenerServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shortenerServiceClient) Shorten(ctx context.Context, in *ShortenRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "Shorten", in, opts)
}

func (c *shortenerServiceClient) Expand(ctx context.Context, in *ExpandRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "Expand", in, opts)
}

func (c *shortenerServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "Update", in, opts)
}

func (c *shortenerServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Delete", in, opts)
}

func (c *shortenerServiceClient) List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, "List", in, opts)
}

func (c *shortenerServiceClient) DeleteAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DeleteAllResponse, error) {
	return invoke[DeleteAllResponse](ctx, c.cc, "DeleteAll", in, opts)
}
