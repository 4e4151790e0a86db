package auth

import (
	"strings"

	"access-center/apperrors"
)

// Guard evaluates role and permission checks against a resolved Identity.
// Checks are pure and deterministic: they read the identity, return nil on
// success and a typed rejection on failure, and are never retried.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// RequireRoles passes if the identity holds at least one of the allowed
// roles. The reserved admin role is always acceptable. On failure the full
// acceptable set (including admin) is reported.
func (g *Guard) RequireRoles(identity *Identity, allowed ...string) error {
	if identity.IsAdmin() {
		return nil
	}
	for _, role := range identity.Roles {
		for _, name := range allowed {
			if role.Name == name {
				return nil
			}
		}
	}
	return apperrors.InsufficientRoles(append(allowed, AdminRoleName))
}

// RequirePermissions passes only if the identity holds every required tuple.
// An identity holding an active admin role short-circuits to pass. On
// failure the missing tuples are enumerated as action:resource:scope.
func (g *Guard) RequirePermissions(identity *Identity, required ...Permission) error {
	if len(required) == 0 {
		return nil
	}
	if identity.IsAdmin() {
		return nil
	}
	missing := identity.Permissions.Missing(required)
	if len(missing) > 0 {
		return apperrors.InsufficientPermissions(missing)
	}
	return nil
}

// RequireOwnership selects between the self and the all permission set based
// on whether target names the acting identity, matched by id or by email.
// The selection happens before any data lookup so a caller lacking the
// "all" permission can never probe for the target's existence.
func (g *Guard) RequireOwnership(identity *Identity, target string, selfPerms, allPerms []Permission) error {
	if target == identity.UserID || (target != "" && strings.EqualFold(target, identity.Email)) {
		return g.RequirePermissions(identity, selfPerms...)
	}
	return g.RequirePermissions(identity, allPerms...)
}
