package auth

import (
	"strings"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"access-center/apperrors"
)

// Request attributes set by the token filters for downstream handlers.
const (
	UserIDAttribute = "user_id"
	EmailAttribute  = "user_email"
	ClaimsAttribute = "token_claims"
)

// TokenFilters builds the go-restful filters guarding HTTP routes. Every
// filter verifies the bearer token, consults the blacklist, and checks the
// access/refresh flag before handing off to the route handler.
type TokenFilters struct {
	codec     *TokenCodec
	blacklist Blacklist
	failOpen  bool
	logger    *zap.Logger
}

// NewTokenFilters wires the filters. failOpen controls the read path of the
// revocation store: when true, a blacklist lookup error lets the request
// through (availability over strictness); when false the request is
// rejected with 503. The write path (revocation itself) always fails
// closed regardless of this flag.
func NewTokenFilters(codec *TokenCodec, blacklist Blacklist, failOpen bool, logger *zap.Logger) *TokenFilters {
	return &TokenFilters{codec: codec, blacklist: blacklist, failOpen: failOpen, logger: logger}
}

// AccessToken guards routes that require a valid, unrevoked access token.
func (f *TokenFilters) AccessToken() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		f.verify(req, resp, chain, false)
	}
}

// RefreshToken guards the token exchange route; only refresh tokens pass.
func (f *TokenFilters) RefreshToken() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		f.verify(req, resp, chain, true)
	}
}

func (f *TokenFilters) verify(req *restful.Request, resp *restful.Response, chain *restful.FilterChain, wantRefresh bool) {
	rejection := apperrors.InvalidAccessToken()
	if wantRefresh {
		rejection = apperrors.InvalidRefreshToken()
	}

	tokenString, ok := bearerToken(req)
	if !ok {
		WriteError(resp, rejection)
		return
	}

	claims, err := f.codec.VerifyToken(tokenString)
	if err != nil {
		WriteError(resp, rejection)
		return
	}

	revoked, err := f.blacklist.IsRevoked(req.Request.Context(), claims.ID)
	if err != nil {
		f.logger.Error("blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		if !f.failOpen {
			WriteError(resp, apperrors.RevocationUnavailable())
			return
		}
		revoked = false
	}
	if revoked {
		WriteError(resp, rejection)
		return
	}

	if claims.Refresh != wantRefresh {
		WriteError(resp, rejection)
		return
	}

	req.SetAttribute(UserIDAttribute, claims.User.ID)
	req.SetAttribute(EmailAttribute, claims.User.Email)
	req.SetAttribute(ClaimsAttribute, claims)

	chain.ProcessFilter(req, resp)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(req *restful.Request) (string, bool) {
	header := req.HeaderParameter("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// WriteError renders a typed rejection as JSON. Unknown errors collapse to
// the generic internal error so nothing leaks to the caller.
func WriteError(resp *restful.Response, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		appErr = apperrors.Internal()
	}
	_ = resp.WriteHeaderAndJson(appErr.Status, appErr, restful.MIME_JSON)
}

// ClaimsFromRequest returns the verified token claims stored by a filter.
func ClaimsFromRequest(req *restful.Request) (*TokenClaims, bool) {
	claims, ok := req.Attribute(ClaimsAttribute).(*TokenClaims)
	return claims, ok
}

// SubjectFromRequest returns the authenticated user id stored by a filter.
func SubjectFromRequest(req *restful.Request) (string, bool) {
	id, ok := req.Attribute(UserIDAttribute).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
