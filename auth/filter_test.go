package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubBlacklist lets tests control the revocation state and failure mode of
// the store.
type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	if s.revoked == nil {
		s.revoked = make(map[string]bool)
	}
	s.revoked[jti] = true
	return nil
}

func (s *stubBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[jti], nil
}

func newFilterTestContainer(filters *TokenFilters) *restful.Container {
	container := restful.NewContainer()
	ws := new(restful.WebService)
	ws.Path("/protected").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").Filter(filters.AccessToken()).To(func(req *restful.Request, resp *restful.Response) {
		userID, _ := SubjectFromRequest(req)
		_ = resp.WriteHeaderAndJson(http.StatusOK, map[string]string{"user_id": userID}, restful.MIME_JSON)
	}))
	ws.Route(ws.GET("/refresh").Filter(filters.RefreshToken()).To(func(req *restful.Request, resp *restful.Response) {
		resp.WriteHeader(http.StatusOK)
	}))
	container.Add(ws)
	return container
}

func doFilterRequest(container *restful.Container, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	container.ServeHTTP(w, req)
	return w
}

func TestAccessTokenFilter(t *testing.T) {
	codec := newTestCodec()

	t.Run("No token", func(t *testing.T) {
		filters := NewTokenFilters(codec, &stubBlacklist{}, false, zap.NewNop())
		w := doFilterRequest(newFilterTestContainer(filters), "/protected", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "103_invalid_access_token")
	})

	t.Run("Valid token passes and exposes the subject", func(t *testing.T) {
		filters := NewTokenFilters(codec, &stubBlacklist{}, false, zap.NewNop())
		token, err := codec.IssueToken(testSubject(), time.Minute, false)
		require.NoError(t, err)

		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), testSubject().ID)
	})

	t.Run("Expired token rejected", func(t *testing.T) {
		filters := NewTokenFilters(codec, &stubBlacklist{}, false, zap.NewNop())
		token, err := codec.IssueToken(testSubject(), -time.Minute, false)
		require.NoError(t, err)

		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Structurally valid but revoked token rejected", func(t *testing.T) {
		token, err := codec.IssueToken(testSubject(), time.Minute, false)
		require.NoError(t, err)
		claims, err := codec.VerifyToken(token)
		require.NoError(t, err)

		filters := NewTokenFilters(codec,
			&stubBlacklist{revoked: map[string]bool{claims.ID: true}}, false, zap.NewNop())

		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "103_invalid_access_token")
	})

	t.Run("Refresh token rejected on access route", func(t *testing.T) {
		filters := NewTokenFilters(codec, &stubBlacklist{}, false, zap.NewNop())
		token, err := codec.IssueToken(testSubject(), time.Hour, true)
		require.NoError(t, err)

		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRefreshTokenFilter(t *testing.T) {
	codec := newTestCodec()
	filters := NewTokenFilters(codec, &stubBlacklist{}, false, zap.NewNop())

	t.Run("Refresh token passes", func(t *testing.T) {
		token, err := codec.IssueToken(testSubject(), time.Hour, true)
		require.NoError(t, err)

		w := doFilterRequest(newFilterTestContainer(filters), "/protected/refresh", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Access token rejected on refresh route", func(t *testing.T) {
		token, err := codec.IssueToken(testSubject(), time.Minute, false)
		require.NoError(t, err)

		w := doFilterRequest(newFilterTestContainer(filters), "/protected/refresh", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "104_invalid_refresh_token")
	})
}

func TestBlacklistOutagePolicy(t *testing.T) {
	codec := newTestCodec()
	broken := &stubBlacklist{err: errors.New("connection refused")}

	token, err := codec.IssueToken(testSubject(), time.Minute, false)
	require.NoError(t, err)

	t.Run("Fail closed rejects with 503", func(t *testing.T) {
		filters := NewTokenFilters(codec, broken, false, zap.NewNop())
		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "118_revocation_store_unavailable")
	})

	t.Run("Fail open lets the request through", func(t *testing.T) {
		filters := NewTokenFilters(codec, broken, true, zap.NewNop())
		w := doFilterRequest(newFilterTestContainer(filters), "/protected", token)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
