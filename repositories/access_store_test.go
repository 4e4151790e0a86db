package repositories

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"access-center/auth"
	"access-center/database"
	"access-center/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestIdentityResolver(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	activeRole := &models.Role{Name: "editor", IsActive: true}
	inactiveRole := &models.Role{Name: "legacy", IsActive: true}
	require.NoError(t, db.Create(activeRole).Error)
	require.NoError(t, db.Create(inactiveRole).Error)
	// Deactivate after create; the is_active column carries a true default.
	require.NoError(t, db.Model(inactiveRole).Update("is_active", false).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: activeRole.ID}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: inactiveRole.ID}).Error)

	activePerm := &models.Permission{Action: "read", Resource: "report", Scope: "all", IsActive: true}
	inactivePerm := &models.Permission{Action: "delete", Resource: "report", Scope: "all", IsActive: true}
	require.NoError(t, db.Create(activePerm).Error)
	require.NoError(t, db.Create(inactivePerm).Error)
	require.NoError(t, db.Model(inactivePerm).Update("is_active", false).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: activeRole.ID, PermissionID: activePerm.ID}).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: activeRole.ID, PermissionID: inactivePerm.ID}).Error)

	resolver := auth.NewIdentityResolver(NewAccessStore(db))

	t.Run("Only active roles and permissions count", func(t *testing.T) {
		identity, err := resolver.Resolve(ctx, user.ID)
		require.NoError(t, err)

		assert.Equal(t, user.ID, identity.UserID)
		assert.Equal(t, "alice@example.com", identity.Email)
		require.Len(t, identity.Roles, 1)
		assert.Equal(t, "editor", identity.Roles[0].Name)
		assert.True(t, identity.Permissions.Contains(auth.NewPermission("read", "report", "all")))
		assert.False(t, identity.Permissions.Contains(auth.NewPermission("delete", "report", "all")))
	})

	t.Run("Revoking a role takes effect on the next resolve", func(t *testing.T) {
		require.NoError(t, db.Where("user_id = ? AND role_id = ?", user.ID, activeRole.ID).
			Delete(&models.UserRole{}).Error)

		identity, err := resolver.Resolve(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, identity.Roles)
		assert.False(t, identity.Permissions.Contains(auth.NewPermission("read", "report", "all")))
	})

	t.Run("Unknown subject fails", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "no-such-user")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
