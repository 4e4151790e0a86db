package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"access-center/auth"
)

type fakeBlacklist struct {
	revoked map[string]bool
}

func (f *fakeBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = make(map[string]bool)
	}
	f.revoked[jti] = true
	return nil
}

func (f *fakeBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func newInterceptorFixture() (*auth.TokenCodec, grpc.UnaryServerInterceptor, *fakeBlacklist) {
	codec := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), zap.NewNop())
	bl := &fakeBlacklist{}
	return codec, AuthInterceptor(codec, bl), bl
}

func invoke(ctx context.Context, interceptor grpc.UnaryServerInterceptor, method string) (context.Context, error) {
	var handlerCtx context.Context
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			handlerCtx = ctx
			return nil, nil
		})
	return handlerCtx, err
}

func TestAuthInterceptor(t *testing.T) {
	codec, interceptor, bl := newInterceptorFixture()
	subject := auth.TokenUser{ID: "user-1", Email: "alice@example.com"}

	t.Run("Health check is public", func(t *testing.T) {
		_, err := invoke(context.Background(), interceptor, "/grpc.health.v1.Health/Check")
		assert.NoError(t, err)
	})

	t.Run("Missing metadata rejected", func(t *testing.T) {
		_, err := invoke(context.Background(), interceptor, "/some.Service/Method")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Valid token passes and fills the context", func(t *testing.T) {
		token, err := codec.IssueToken(subject, time.Minute, false)
		require.NoError(t, err)
		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer "+token))

		handlerCtx, err := invoke(ctx, interceptor, "/some.Service/Method")
		require.NoError(t, err)

		userID, ok := UserIDFromContext(handlerCtx)
		require.True(t, ok)
		assert.Equal(t, "user-1", userID)
		email, ok := EmailFromContext(handlerCtx)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", email)
	})

	t.Run("Refresh token rejected", func(t *testing.T) {
		token, err := codec.IssueToken(subject, time.Hour, true)
		require.NoError(t, err)
		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer "+token))

		_, err = invoke(ctx, interceptor, "/some.Service/Method")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Revoked token rejected", func(t *testing.T) {
		token, err := codec.IssueToken(subject, time.Minute, false)
		require.NoError(t, err)
		claims, err := codec.VerifyToken(token)
		require.NoError(t, err)
		require.NoError(t, bl.Revoke(context.Background(), claims.ID, time.Minute))

		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer "+token))
		_, err = invoke(ctx, interceptor, "/some.Service/Method")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Malformed header rejected", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Token abc"))
		_, err := invoke(ctx, interceptor, "/some.Service/Method")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}
