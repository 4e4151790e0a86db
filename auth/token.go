package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTokenExpired marks a structurally valid token past its expiry.
	// This is routine client behavior, so verification returns it without
	// logging anything.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad
	// signature, wrong algorithm, malformed input.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenRole is the denormalized role snapshot embedded in access tokens.
// It exists for display purposes only; authorization always re-reads the
// database through the identity resolver.
type TokenRole struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// TokenUser identifies the token subject.
type TokenUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email,omitempty"`
	Roles []TokenRole `json:"roles,omitempty"`
}

// TokenClaims is the signed payload of both access and refresh tokens. The
// Refresh flag distinguishes the two; the registered ID claim carries the
// jti used as the revocation key.
type TokenClaims struct {
	User    TokenUser `json:"user"`
	Refresh bool      `json:"refresh"`
	jwt.RegisteredClaims
}

// RemainingLifetime is the time left until the token's expiry, the exact TTL
// a revocation entry for this token must use.
func (c *TokenClaims) RemainingLifetime() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

// TokenCodec signs and verifies bearer tokens with HS256 over a shared
// secret. The secret length (>= 256 bits) is enforced by config validation
// at startup, not here. The codec performs no I/O.
type TokenCodec struct {
	secret []byte
	logger *zap.Logger
}

func NewTokenCodec(secret []byte, logger *zap.Logger) *TokenCodec {
	return &TokenCodec{secret: secret, logger: logger}
}

// IssueToken signs a token for the given subject with an absolute expiry of
// now+expiry and a fresh jti. Refresh tokens never carry the role snapshot.
func (c *TokenCodec) IssueToken(user TokenUser, expiry time.Duration, refresh bool) (string, error) {
	if refresh {
		user.Roles = nil
	}
	now := time.Now()
	claims := &TokenClaims{
		User:    user,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the claims. Expired
// tokens are rejected silently; any other failure is rejected with a
// warning logged, since it indicates a malformed or forged token rather
// than routine expiry.
func (c *TokenCodec) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		c.logger.Warn("could not decode token", zap.Error(err))
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		c.logger.Warn("token claims have unexpected shape")
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
