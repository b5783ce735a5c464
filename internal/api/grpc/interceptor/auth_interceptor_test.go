package interceptor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcapi "venue-approval-backend/internal/api/grpc"
	"venue-approval-backend/internal/security"
)

const protectedMethod = "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func TestAuthInterceptor_Unary(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	unary := NewAuthInterceptor(tm).Unary()

	var seen context.Context
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = ctx
		return "ok", nil
	}

	t.Run("Public method needs no token", func(t *testing.T) {
		resp, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("Missing token", func(t *testing.T) {
		_, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))

		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs())
		_, err = unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Invalid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer junk"))
		_, err := unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Valid token replaces a spoofed org id", func(t *testing.T) {
		token, err := tm.GenerateAccessToken("org-1", "Board", 1, false)
		require.NoError(t, err)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token, "org-id", "spoofed"))

		_, err = unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, handler)
		require.NoError(t, err)
		id, err := grpcapi.GetOrganizationIDFromContext(seen)
		require.NoError(t, err)
		assert.Equal(t, "org-1", id)
	})
}

func TestAuthInterceptor_Stream(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	stream := NewAuthInterceptor(tm).Stream()
	token, err := tm.GenerateAccessToken("org-2", "Dept", 2, false)
	require.NoError(t, err)

	var orgID string
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		orgID, _ = grpcapi.GetOrganizationIDFromContext(ss.Context())
		return nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", token))
	require.NoError(t, stream(nil, &fakeStream{ctx: ctx}, &grpc.StreamServerInfo{FullMethod: protectedMethod}, handler))
	assert.Equal(t, "org-2", orgID)

	err = stream(nil, &fakeStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: protectedMethod}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
