package repositories

import (
	"context"

	"gorm.io/gorm"

	"access-center/models"
)

// AccessStore is the read-only projection the identity resolver consumes:
// a user's active role assignments and each role's active permission
// assignments, read live at call time.
type AccessStore struct {
	db *gorm.DB
}

func NewAccessStore(db *gorm.DB) *AccessStore {
	return &AccessStore{db: db}
}

func (s *AccessStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActiveRoles returns the active roles currently assigned to the user.
func (s *AccessStore) ListActiveRoles(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.is_active = ?", userID, true).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// ListActivePermissions returns the active permissions currently assigned
// to the role.
func (s *AccessStore) ListActivePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	var permissions []models.Permission
	err := s.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ? AND permissions.is_active = ?", roleID, true).
		Find(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}
