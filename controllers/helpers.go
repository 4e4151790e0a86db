package controllers

import (
	"net/http"
	"strconv"

	restful "github.com/emicklei/go-restful/v3"

	"access-center/apperrors"
	"access-center/auth"
)

// resolveIdentity loads the acting identity for an authenticated request.
// The token filter has already verified the token; this reads the *current*
// role and permission state from the database, never the token's snapshot.
func resolveIdentity(resolver *auth.IdentityResolver, req *restful.Request, resp *restful.Response) (*auth.Identity, bool) {
	subject, ok := auth.SubjectFromRequest(req)
	if !ok {
		auth.WriteError(resp, apperrors.InvalidAccessToken())
		return nil, false
	}
	identity, err := resolver.Resolve(req.Request.Context(), subject)
	if err != nil {
		auth.WriteError(resp, apperrors.InvalidAccessToken())
		return nil, false
	}
	return identity, true
}

// uintParam parses an unsigned integer path or query parameter.
func uintParam(value string) (uint, bool) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

func writeBadRequest(resp *restful.Response, message string) {
	_ = resp.WriteHeaderAndJson(http.StatusBadRequest, map[string]string{"message": message}, restful.MIME_JSON)
}
