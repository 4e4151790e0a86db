package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-center/apperrors"
	"access-center/models"
)

func identityWith(roles []models.Role, perms ...Permission) *Identity {
	return &Identity{
		UserID:      "user-1",
		Email:       "alice@example.com",
		Roles:       roles,
		Permissions: NewPermissionSet(perms...),
	}
}

func TestRequirePermissions(t *testing.T) {
	guard := NewGuard()

	t.Run("Empty requirement always passes", func(t *testing.T) {
		assert.NoError(t, guard.RequirePermissions(identityWith(nil)))
	})

	t.Run("Holder of every tuple passes", func(t *testing.T) {
		identity := identityWith(nil,
			NewPermission("read", "user", "self"),
			NewPermission("update", "user", "self"),
		)
		assert.NoError(t, guard.RequirePermissions(identity,
			NewPermission("read", "user", "self"),
			NewPermission("update", "user", "self")))
	})

	t.Run("Missing tuples are enumerated", func(t *testing.T) {
		identity := identityWith(nil, NewPermission("read", "user", "self"))
		err := guard.RequirePermissions(identity,
			NewPermission("read", "user", "self"),
			NewPermission("delete", "user", "all"))

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "105_insufficient_permissions", appErr.Code)
		assert.Contains(t, appErr.Message, "delete:user:all")
		assert.NotContains(t, appErr.Message, "read:user:self")
	})

	t.Run("No permissions at all reports the full required set", func(t *testing.T) {
		err := guard.RequirePermissions(identityWith(nil),
			NewPermission("read", "role", "all"),
			NewPermission("create", "role", "all"))

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Message, "create:role:all")
		assert.Contains(t, appErr.Message, "read:role:all")
	})

	t.Run("Admin bypasses without holding any tuple", func(t *testing.T) {
		admin := identityWith([]models.Role{{Name: AdminRoleName, IsActive: true}})
		assert.NoError(t, guard.RequirePermissions(admin,
			NewPermission("delete", "user", "all"),
			NewPermission("delete", "role", "all")))
	})
}

func TestRequireRoles(t *testing.T) {
	guard := NewGuard()

	t.Run("Holder of an allowed role passes", func(t *testing.T) {
		identity := identityWith([]models.Role{{Name: "editor"}})
		assert.NoError(t, guard.RequireRoles(identity, "editor", "moderator"))
	})

	t.Run("Admin always passes", func(t *testing.T) {
		admin := identityWith([]models.Role{{Name: AdminRoleName}})
		assert.NoError(t, guard.RequireRoles(admin, "editor"))
	})

	t.Run("Failure reports allowed set including admin", func(t *testing.T) {
		identity := identityWith([]models.Role{{Name: "viewer"}})
		err := guard.RequireRoles(identity, "editor")

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "106_insufficient_roles", appErr.Code)
		assert.Contains(t, appErr.Message, "editor")
		assert.Contains(t, appErr.Message, AdminRoleName)
	})
}

func TestRequireOwnership(t *testing.T) {
	guard := NewGuard()
	selfPerms := []Permission{NewPermission("read", "user", "self")}
	allPerms := []Permission{NewPermission("read", "user", "all")}

	t.Run("Own id selects self permissions", func(t *testing.T) {
		identity := identityWith(nil, NewPermission("read", "user", "self"))
		assert.NoError(t, guard.RequireOwnership(identity, "user-1", selfPerms, allPerms))
	})

	t.Run("Own email matches case-insensitively", func(t *testing.T) {
		identity := identityWith(nil, NewPermission("read", "user", "self"))
		assert.NoError(t, guard.RequireOwnership(identity, "Alice@Example.com", selfPerms, allPerms))
	})

	t.Run("Other target requires all scope", func(t *testing.T) {
		identity := identityWith(nil, NewPermission("read", "user", "self"))
		err := guard.RequireOwnership(identity, "user-2", selfPerms, allPerms)

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Message, "read:user:all")
	})

	t.Run("Holder of all scope reads anyone", func(t *testing.T) {
		identity := identityWith(nil, NewPermission("read", "user", "all"))
		assert.NoError(t, guard.RequireOwnership(identity, "user-2", selfPerms, allPerms))
	})
}

// The baseline "user" role grants self access to the own profile and read
// access to the role and permission catalogs, nothing more.
func TestStandardUserRoleScenario(t *testing.T) {
	guard := NewGuard()
	identity := identityWith([]models.Role{{ID: 2, Name: "user", IsActive: true}},
		NewPermission("read", "user", "self"),
		NewPermission("update", "user", "self"),
		NewPermission("delete", "user", "self"),
		NewPermission("read", "role", "all"),
		NewPermission("read", "permission", "all"),
	)

	assert.NoError(t, guard.RequireOwnership(identity, "user-1",
		[]Permission{NewPermission("update", "user", "self")},
		[]Permission{NewPermission("update", "user", "all")}))
	assert.NoError(t, guard.RequirePermissions(identity, NewPermission("read", "role", "all")))
	assert.NoError(t, guard.RequirePermissions(identity, NewPermission("read", "permission", "all")))

	assert.Error(t, guard.RequireOwnership(identity, "someone-else",
		[]Permission{NewPermission("update", "user", "self")},
		[]Permission{NewPermission("update", "user", "all")}))
	assert.Error(t, guard.RequirePermissions(identity, NewPermission("create", "role", "all")))
	assert.Error(t, guard.RequirePermissions(identity, NewPermission("read", "user", "all")))
}
