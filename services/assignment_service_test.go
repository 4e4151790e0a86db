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

func newAssignmentService(db *gorm.DB) AssignmentService {
	return NewAssignmentService(
		repositories.NewAssignmentRepository(db),
		repositories.NewUserRepository(db),
		repositories.NewRoleRepository(db),
		repositories.NewPermissionRepository(db),
		auth.NewGuard(),
		zap.NewNop(),
	)
}

func TestCreateRoleAssignment(t *testing.T) {
	db := setupTestDB(t)
	service := newAssignmentService(db)
	user := createTestUser(t, db, "alice@example.com")
	role := createTestRole(t, db, "editor")

	t.Run("Assigns and stamps the time", func(t *testing.T) {
		assignment, err := service.CreateRoleAssignment(context.Background(), adminIdentity(), user.ID, role.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, assignment.UserID)
		assert.False(t, assignment.AssignedAt.IsZero())
	})

	t.Run("Duplicate rejected", func(t *testing.T) {
		_, err := service.CreateRoleAssignment(context.Background(), adminIdentity(), user.ID, role.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "116_assignment_already_exists", appErr.Code)
	})

	t.Run("Unknown user rejected", func(t *testing.T) {
		_, err := service.CreateRoleAssignment(context.Background(), adminIdentity(), "no-such-user", role.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "110_user_not_found", appErr.Code)
	})

	t.Run("Unknown role rejected", func(t *testing.T) {
		_, err := service.CreateRoleAssignment(context.Background(), adminIdentity(), user.ID, 9999)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "111_role_not_found", appErr.Code)
	})
}

func TestDeleteRoleAssignment(t *testing.T) {
	db := setupTestDB(t)
	service := newAssignmentService(db)
	user := createTestUser(t, db, "alice@example.com")
	role := createTestRole(t, db, "editor")
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)

	require.NoError(t, service.DeleteRoleAssignment(context.Background(), adminIdentity(), user.ID, role.ID))

	err := service.DeleteRoleAssignment(context.Background(), adminIdentity(), user.ID, role.ID)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "115_assignment_not_found", appErr.Code)
}

func TestListRoleAssignmentsOwnership(t *testing.T) {
	db := setupTestDB(t)
	service := newAssignmentService(db)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	role := createTestRole(t, db, "editor")
	require.NoError(t, db.Create(&models.UserRole{UserID: alice.ID, RoleID: role.ID}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: bob.ID, RoleID: role.ID}).Error)

	selfOnly := identityWithPerms(alice.ID, alice.Email,
		auth.NewPermission("read", "role_assignment", "self"))

	t.Run("Own assignments with self scope", func(t *testing.T) {
		assignments, err := service.ListRoleAssignments(context.Background(), selfOnly, alice.ID, 0)
		require.NoError(t, err)
		assert.Len(t, assignments, 1)
	})

	t.Run("Someone else's assignments need all scope", func(t *testing.T) {
		_, err := service.ListRoleAssignments(context.Background(), selfOnly, bob.ID, 0)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Message, "read:role_assignment:all")
	})

	t.Run("Unfiltered listing needs all scope", func(t *testing.T) {
		_, err := service.ListRoleAssignments(context.Background(), selfOnly, "", 0)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "105_insufficient_permissions", appErr.Code)
	})

	t.Run("Admin lists everything", func(t *testing.T) {
		assignments, err := service.ListRoleAssignments(context.Background(), adminIdentity(), "", 0)
		require.NoError(t, err)
		assert.Len(t, assignments, 2)
	})

	t.Run("Role filter applies", func(t *testing.T) {
		other := createTestRole(t, db, "viewer")
		assignments, err := service.ListRoleAssignments(context.Background(), adminIdentity(), "", other.ID)
		require.NoError(t, err)
		assert.Empty(t, assignments)
	})
}

func TestPermissionAssignments(t *testing.T) {
	db := setupTestDB(t)
	service := newAssignmentService(db)
	role := createTestRole(t, db, "editor")
	perm := &models.Permission{Action: "read", Resource: "report", Scope: "all", IsActive: true}
	require.NoError(t, db.Create(perm).Error)

	t.Run("Assign and list", func(t *testing.T) {
		assignment, err := service.CreatePermissionAssignment(context.Background(), adminIdentity(), role.ID, perm.ID)
		require.NoError(t, err)
		assert.False(t, assignment.AssignedAt.IsZero())

		assignments, err := service.ListPermissionAssignments(context.Background(), adminIdentity(), role.ID, 0)
		require.NoError(t, err)
		assert.Len(t, assignments, 1)
	})

	t.Run("Duplicate rejected", func(t *testing.T) {
		_, err := service.CreatePermissionAssignment(context.Background(), adminIdentity(), role.ID, perm.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "116_assignment_already_exists", appErr.Code)
	})

	t.Run("Unknown endpoints rejected", func(t *testing.T) {
		_, err := service.CreatePermissionAssignment(context.Background(), adminIdentity(), 9999, perm.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "111_role_not_found", appErr.Code)

		_, err = service.CreatePermissionAssignment(context.Background(), adminIdentity(), role.ID, 9999)
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "113_permission_not_found", appErr.Code)
	})

	t.Run("Remove then remove again", func(t *testing.T) {
		require.NoError(t, service.DeletePermissionAssignment(context.Background(), adminIdentity(), role.ID, perm.ID))

		err := service.DeletePermissionAssignment(context.Background(), adminIdentity(), role.ID, perm.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "115_assignment_not_found", appErr.Code)
	})

	t.Run("Creation requires the assignment permission", func(t *testing.T) {
		reader := identityWithPerms("u1", "u1@example.com",
			auth.NewPermission("read", "permission_assignment", "all"))
		_, err := service.CreatePermissionAssignment(context.Background(), reader, role.ID, perm.ID)
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "105_insufficient_permissions", appErr.Code)
	})
}
