// Package apperrors defines the caller-facing rejection surface: every error
// carries a stable machine-readable code, a human message, and a remediation
// hint alongside the HTTP status it maps to.
package apperrors

import (
	"net/http"
	"strings"
)

type Error struct {
	Code     string `json:"error_code"`
	Message  string `json:"message"`
	Solution string `json:"solution"`
	Status   int    `json:"-"`
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

func InvalidAccessToken() *Error {
	return &Error{
		Code:     "103_invalid_access_token",
		Message:  "Access token is invalid or expired.",
		Solution: "Provide a valid access token.",
		Status:   http.StatusForbidden,
	}
}

func InvalidRefreshToken() *Error {
	return &Error{
		Code:     "104_invalid_refresh_token",
		Message:  "Refresh token is invalid or expired.",
		Solution: "Provide a valid refresh token.",
		Status:   http.StatusForbidden,
	}
}

// InsufficientPermissions enumerates the missing action:resource:scope
// tuples so the caller knows exactly what was required.
func InsufficientPermissions(missing []string) *Error {
	return &Error{
		Code:     "105_insufficient_permissions",
		Message:  "Missing permission(s): " + strings.Join(missing, ", "),
		Solution: "Contact your administrator for assistance.",
		Status:   http.StatusForbidden,
	}
}

// InsufficientRoles reports the acceptable role set of a failed role check.
func InsufficientRoles(allowed []string) *Error {
	return &Error{
		Code:     "106_insufficient_roles",
		Message:  "Any one of these roles is needed: " + strings.Join(allowed, ", "),
		Solution: "Contact your administrator for assistance.",
		Status:   http.StatusForbidden,
	}
}

func InvalidCredentials() *Error {
	return &Error{
		Code:     "107_invalid_credentials",
		Message:  "The provided email/password combination is invalid.",
		Solution: "Check your credentials and try again.",
		Status:   http.StatusUnauthorized,
	}
}

func UserNotVerified() *Error {
	return &Error{
		Code:     "108_user_not_verified",
		Message:  "The user account is not verified.",
		Solution: "Verify the account before logging in.",
		Status:   http.StatusForbidden,
	}
}

func UserEmailExists() *Error {
	return &Error{
		Code:     "109_user_email_exists",
		Message:  "A user with this email already exists.",
		Solution: "Use a different email address or log in instead.",
		Status:   http.StatusConflict,
	}
}

func UserNotFound() *Error {
	return &Error{
		Code:     "110_user_not_found",
		Message:  "The provided user id or email does not exist.",
		Solution: "Check the user identifier and try again.",
		Status:   http.StatusNotFound,
	}
}

func RoleNotFound() *Error {
	return &Error{
		Code:     "111_role_not_found",
		Message:  "The provided role id does not exist.",
		Solution: "Check the role identifier and try again.",
		Status:   http.StatusNotFound,
	}
}

func RoleAlreadyExists() *Error {
	return &Error{
		Code:     "112_role_already_exists",
		Message:  "A role with this name already exists.",
		Solution: "Use a different role name or update the existing role.",
		Status:   http.StatusConflict,
	}
}

func PermissionNotFound() *Error {
	return &Error{
		Code:     "113_permission_not_found",
		Message:  "The provided permission id does not exist.",
		Solution: "Check the permission identifier and try again.",
		Status:   http.StatusNotFound,
	}
}

func PermissionAlreadyExists() *Error {
	return &Error{
		Code:     "114_permission_already_exists",
		Message:  "A permission with this action, resource, and scope combination already exists.",
		Solution: "Reuse the existing permission instead of creating a duplicate.",
		Status:   http.StatusConflict,
	}
}

func AssignmentNotFound() *Error {
	return &Error{
		Code:     "115_assignment_not_found",
		Message:  "The specified assignment does not exist.",
		Solution: "Check the identifiers and try again.",
		Status:   http.StatusNotFound,
	}
}

func AssignmentAlreadyExists() *Error {
	return &Error{
		Code:     "116_assignment_already_exists",
		Message:  "An identical assignment already exists.",
		Solution: "The assignment is already in place; no action needed.",
		Status:   http.StatusConflict,
	}
}

func RevocationFailed() *Error {
	return &Error{
		Code:     "117_revocation_failed",
		Message:  "The token could not be revoked.",
		Solution: "Retry the request; if the problem persists contact your administrator.",
		Status:   http.StatusInternalServerError,
	}
}

func RevocationUnavailable() *Error {
	return &Error{
		Code:     "118_revocation_store_unavailable",
		Message:  "The token revocation store could not be reached.",
		Solution: "Retry the request later.",
		Status:   http.StatusServiceUnavailable,
	}
}

func Internal() *Error {
	return &Error{
		Code:     "119_internal_server_error",
		Message:  "An internal server error occurred.",
		Solution: "Retry the request; if the problem persists contact your administrator.",
		Status:   http.StatusInternalServerError,
	}
}
