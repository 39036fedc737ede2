package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// GRPCCredentialInterceptor copies the authorization metadata into the context, mirroring
// Credential for HTTP.
func GRPCCredentialInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return handler(ctx, req)
	}

	if credential := parseAuthorization(values[0]); credential != "" {
		ctx = WithCredential(ctx, credential)
	}
	return handler(ctx, req)
}
