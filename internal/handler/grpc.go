package handler

import (
	"context"
	"errors"

	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/proto"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type ShortenerGRPCServer struct {
	proto.UnimplementedShortenerServiceServer
	shortener ShortenerService
}

func NewShortenerGRPCServer(shortener ShortenerService) *ShortenerGRPCServer {
	return &ShortenerGRPCServer{
		shortener: shortener,
	}
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "credential missing or invalid")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "link belongs to another principal")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "short link not found")
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrExhausted):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		log.Error().Err(err).Msg("RPC failed")
		return status.Error(codes.Internal, "internal error")
	}
}

func toLinkResponse(link model.ShortLink) *proto.LinkResponse {
	return &proto.LinkResponse{
		Id:    link.ID,
		Url:   link.Destination,
		Owner: link.Owner,
	}
}

func grpcCredential(ctx context.Context) string {
	c, _ := middleware.GetCredentialFromContext(ctx)
	return c
}

func (s *ShortenerGRPCServer) Shorten(ctx context.Context, req *proto.ShortenRequest) (*proto.LinkResponse, error) {
	if req.Url == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	if req.Length < 0 {
		return nil, status.Error(codes.InvalidArgument, "length must be positive")
	}

	link, err := s.shortener.Create(ctx, req.Url, grpcCredential(ctx), int(req.Length))
	if err != nil {
		return nil, grpcError(err)
	}
	return toLinkResponse(link), nil
}

func (s *ShortenerGRPCServer) Expand(ctx context.Context, req *proto.ExpandRequest) (*proto.LinkResponse, error) {
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	link, err := s.shortener.Read(ctx, req.Id)
	if err != nil {
		return nil, grpcError(err)
	}
	return toLinkResponse(link), nil
}

func (s *ShortenerGRPCServer) Update(ctx context.Context, req *proto.UpdateRequest) (*proto.LinkResponse, error) {
	if req.Id == "" || req.Url == "" {
		return nil, status.Error(codes.InvalidArgument, "id and url are required")
	}

	link, err := s.shortener.Update(ctx, req.Id, req.Url, grpcCredential(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	return toLinkResponse(link), nil
}

func (s *ShortenerGRPCServer) Delete(ctx context.Context, req *proto.DeleteRequest) (*emptypb.Empty, error) {
	if err := s.shortener.Delete(ctx, req.Id, grpcCredential(ctx)); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *ShortenerGRPCServer) List(ctx context.Context, _ *emptypb.Empty) (*proto.ListResponse, error) {
	links, err := s.shortener.ListAll(ctx, grpcCredential(ctx))
	if err != nil {
		return nil, grpcError(err)
	}

	resp := &proto.ListResponse{
		Links: make([]*proto.LinkResponse, 0, len(links)),
	}
	for _, link := range links {
		resp.Links = append(resp.Links, toLinkResponse(link))
	}
	return resp, nil
}

func (s *ShortenerGRPCServer) DeleteAll(ctx context.Context, _ *emptypb.Empty) (*proto.DeleteAllResponse, error) {
	n, err := s.shortener.DeleteAll(ctx, grpcCredential(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	return &proto.DeleteAllResponse{Removed: int64(n)}, nil
}
