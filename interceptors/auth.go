package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"access-center/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user id.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for the authenticated user email.
	EmailKey contextKey = "email"
)

// The health checking protocol stays unauthenticated so Consul can probe it.
var publicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// AuthInterceptor returns a unary server interceptor that verifies the bearer
// access token from incoming metadata and rejects revoked credentials. On
// success the user id and email are injected into the handler context.
func AuthInterceptor(codec *auth.TokenCodec, blacklist auth.Blacklist) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
		}

		parts := strings.Split(values[0], " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		claims, err := codec.VerifyToken(parts[1])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		if claims.Refresh {
			return nil, status.Error(codes.Unauthenticated, "refresh token cannot be used here")
		}

		revoked, err := blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, status.Error(codes.Unavailable, "revocation store unavailable")
		}
		if revoked {
			return nil, status.Error(codes.Unauthenticated, "token has been revoked")
		}

		newCtx := context.WithValue(ctx, UserIDKey, claims.User.ID)
		newCtx = context.WithValue(newCtx, EmailKey, claims.User.Email)
		return handler(newCtx, req)
	}
}

// UserIDFromContext extracts the authenticated user id from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// EmailFromContext extracts the authenticated user email from the context.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
