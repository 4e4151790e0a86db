package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"access-center/apperrors"
	"access-center/auth"
	"access-center/models"
	"access-center/repositories"
)

func newPermissionService(db *gorm.DB) PermissionService {
	return NewPermissionService(repositories.NewPermissionRepository(db), auth.NewGuard(), zap.NewNop())
}

func TestCreatePermission(t *testing.T) {
	db := setupTestDB(t)
	service := newPermissionService(db)

	t.Run("Canonicalizes the triple to lowercase", func(t *testing.T) {
		perm, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
			Action: "READ", Resource: "Report", Scope: "All",
		})
		require.NoError(t, err)
		assert.Equal(t, "read", perm.Action)
		assert.Equal(t, "report", perm.Resource)
		assert.Equal(t, "all", perm.Scope)
		assert.True(t, perm.IsActive)
	})

	t.Run("Duplicate triple rejected regardless of case", func(t *testing.T) {
		_, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
			Action: "read", Resource: "REPORT", Scope: "all",
		})
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "114_permission_already_exists", appErr.Code)
	})

	t.Run("Same action and resource with different scope allowed", func(t *testing.T) {
		_, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
			Action: "read", Resource: "report", Scope: "self",
		})
		assert.NoError(t, err)
	})
}

func TestUpdatePermission(t *testing.T) {
	db := setupTestDB(t)
	service := newPermissionService(db)

	readAll, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
		Action: "read", Resource: "report", Scope: "all",
	})
	require.NoError(t, err)
	readSelf, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
		Action: "read", Resource: "report", Scope: "self",
	})
	require.NoError(t, err)

	t.Run("Changing the triple onto an existing one rejected", func(t *testing.T) {
		_, err := service.UpdatePermission(context.Background(), adminIdentity(), readSelf.ID, &PermissionInput{
			Scope: "all",
		})
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "114_permission_already_exists", appErr.Code)
	})

	t.Run("Description and activity update without touching the triple", func(t *testing.T) {
		inactive := false
		updated, err := service.UpdatePermission(context.Background(), adminIdentity(), readAll.ID, &PermissionInput{
			Description: "Read every report", IsActive: &inactive,
		})
		require.NoError(t, err)
		assert.Equal(t, "Read every report", updated.Description)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "read", updated.Action)
	})

	t.Run("Unknown id rejected", func(t *testing.T) {
		_, err := service.UpdatePermission(context.Background(), adminIdentity(), 9999, &PermissionInput{})
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "113_permission_not_found", appErr.Code)
	})
}

func TestDeletePermissionCascades(t *testing.T) {
	db := setupTestDB(t)
	service := newPermissionService(db)

	perm, err := service.CreatePermission(context.Background(), adminIdentity(), &PermissionInput{
		Action: "read", Resource: "report", Scope: "all",
	})
	require.NoError(t, err)
	role := createTestRole(t, db, "analyst")
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)

	require.NoError(t, service.DeletePermission(context.Background(), adminIdentity(), perm.ID))

	var count int64
	require.NoError(t, db.Model(&models.Permission{}).Where("id = ?", perm.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.RolePermission{}).Where("permission_id = ?", perm.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPermissionAdministrationRequiresAllScope(t *testing.T) {
	db := setupTestDB(t)
	service := newPermissionService(db)

	reader := identityWithPerms("u1", "u1@example.com",
		auth.NewPermission("read", "permission", "all"))

	_, err := service.ListPermissions(context.Background(), reader)
	assert.NoError(t, err)

	_, err = service.CreatePermission(context.Background(), reader, &PermissionInput{
		Action: "read", Resource: "report", Scope: "all",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "105_insufficient_permissions", appErr.Code)
	assert.Contains(t, appErr.Message, "create:permission:all")
}
