package handler

import (
	"context"
	"net"
	"testing"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/proto"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

func newGRPCClient(t *testing.T) proto.ShortenerServiceClient {
	t.Helper()

	table := auth.NewTokenTable()
	require.NoError(t, table.Register("cred_A", "alice"))
	require.NoError(t, table.Register("cred_B", "bob"))
	shortener := service.NewShortenerService(memory.NewStorage(), table, service.DefaultOptions())

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.GRPCCredentialInterceptor))
	proto.RegisterShortenerServiceServer(srv, NewShortenerGRPCServer(shortener))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return proto.NewShortenerServiceClient(conn)
}

func withCredential(credential string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", credential)
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err))
}

func TestGRPC_RoundTrip(t *testing.T) {
	client := newGRPCClient(t)
	alice := withCredential("Bearer cred_A")
	bob := withCredential("cred_B")

	created, err := client.Shorten(alice, &proto.ShortenRequest{Url: "https://example.com", Length: 6})
	require.NoError(t, err)
	assert.Len(t, created.Id, 6)
	assert.Equal(t, "alice", created.Owner)

	expanded, err := client.Expand(context.Background(), &proto.ExpandRequest{Id: created.Id})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", expanded.Url)

	_, err = client.Update(bob, &proto.UpdateRequest{Id: created.Id, Url: "https://example.org"})
	assertCode(t, err, codes.PermissionDenied)

	updated, err := client.Update(alice, &proto.UpdateRequest{Id: created.Id, Url: "https://example.org"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", updated.Url)

	list, err := client.List(bob, &emptypb.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Links, 1)
	assert.Equal(t, created.Id, list.Links[0].Id)

	_, err = client.Delete(bob, &proto.DeleteRequest{Id: created.Id})
	assertCode(t, err, codes.PermissionDenied)

	_, err = client.Delete(alice, &proto.DeleteRequest{Id: created.Id})
	require.NoError(t, err)

	_, err = client.Expand(context.Background(), &proto.ExpandRequest{Id: created.Id})
	assertCode(t, err, codes.NotFound)
}

func TestGRPC_Errors(t *testing.T) {
	client := newGRPCClient(t)
	alice := withCredential("cred_A")

	_, err := client.Shorten(context.Background(), &proto.ShortenRequest{Url: "https://example.com"})
	assertCode(t, err, codes.Unauthenticated)

	_, err = client.Shorten(withCredential("cred_X"), &proto.ShortenRequest{Url: "https://example.com"})
	assertCode(t, err, codes.Unauthenticated)

	_, err = client.Shorten(alice, &proto.ShortenRequest{Url: "ftp://example.com"})
	assertCode(t, err, codes.InvalidArgument)

	_, err = client.Shorten(alice, &proto.ShortenRequest{})
	assertCode(t, err, codes.InvalidArgument)

	_, err = client.Update(alice, &proto.UpdateRequest{Id: "zzzzz", Url: "https://example.com"})
	assertCode(t, err, codes.NotFound)

	_, err = client.Expand(context.Background(), &proto.ExpandRequest{})
	assertCode(t, err, codes.InvalidArgument)

	_, err = client.List(context.Background(), &emptypb.Empty{})
	assertCode(t, err, codes.Unauthenticated)
}

func TestGRPC_DeleteAll(t *testing.T) {
	client := newGRPCClient(t)

	_, err := client.Shorten(withCredential("cred_A"), &proto.ShortenRequest{Url: "https://a.example.com"})
	require.NoError(t, err)
	_, err = client.Shorten(withCredential("cred_B"), &proto.ShortenRequest{Url: "https://b.example.com"})
	require.NoError(t, err)

	_, err = client.DeleteAll(context.Background(), &emptypb.Empty{})
	assertCode(t, err, codes.Unauthenticated)

	resp, err := client.DeleteAll(withCredential("cred_A"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Removed)

	list, err := client.List(withCredential("cred_A"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Empty(t, list.Links)
}

func TestGRPC_Exhausted(t *testing.T) {
	table := auth.NewTokenTable()
	require.NoError(t, table.Register("cred_A", "alice"))

	opts := service.DefaultOptions()
	opts.MaxAttempts = 1
	opts.ReuseExisting = false
	s := NewShortenerGRPCServer(service.NewShortenerService(memory.NewStorage(), table, opts))

	ctx := middleware.WithCredential(context.Background(), "cred_A")
	_, err := s.Shorten(ctx, &proto.ShortenRequest{Url: "https://example.com"})
	require.NoError(t, err)

	_, err = s.Shorten(ctx, &proto.ShortenRequest{Url: "https://example.com"})
	assertCode(t, err, codes.ResourceExhausted)
}
