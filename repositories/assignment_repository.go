package repositories

import (
	"context"

	"gorm.io/gorm"

	"access-center/models"
)

// AssignmentRepository covers both many-to-many junctions: user↔role and
// role↔permission.
type AssignmentRepository interface {
	CreateUserRole(ctx context.Context, assignment *models.UserRole) error
	UserRoleExists(ctx context.Context, userID string, roleID uint) (bool, error)
	DeleteUserRole(ctx context.Context, userID string, roleID uint) (bool, error)
	ListUserRoles(ctx context.Context, userID string, roleID uint) ([]models.UserRole, error)

	CreateRolePermission(ctx context.Context, assignment *models.RolePermission) error
	RolePermissionExists(ctx context.Context, roleID, permissionID uint) (bool, error)
	DeleteRolePermission(ctx context.Context, roleID, permissionID uint) (bool, error)
	ListRolePermissions(ctx context.Context, roleID, permissionID uint) ([]models.RolePermission, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

var _ AssignmentRepository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateUserRole(ctx context.Context, assignment *models.UserRole) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) UserRoleExists(ctx context.Context, userID string, roleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepository) DeleteUserRole(ctx context.Context, userID string, roleID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	return result.RowsAffected > 0, result.Error
}

// ListUserRoles filters by userID and/or roleID; zero values mean no filter.
func (r *assignmentRepository) ListUserRoles(ctx context.Context, userID string, roleID uint) ([]models.UserRole, error) {
	query := r.db.WithContext(ctx).Model(&models.UserRole{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if roleID != 0 {
		query = query.Where("role_id = ?", roleID)
	}

	var assignments []models.UserRole
	if err := query.Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) CreateRolePermission(ctx context.Context, assignment *models.RolePermission) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) RolePermissionExists(ctx context.Context, roleID, permissionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepository) DeleteRolePermission(ctx context.Context, roleID, permissionID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{})
	return result.RowsAffected > 0, result.Error
}

func (r *assignmentRepository) ListRolePermissions(ctx context.Context, roleID, permissionID uint) ([]models.RolePermission, error) {
	query := r.db.WithContext(ctx).Model(&models.RolePermission{})
	if roleID != 0 {
		query = query.Where("role_id = ?", roleID)
	}
	if permissionID != 0 {
		query = query.Where("permission_id = ?", permissionID)
	}

	var assignments []models.RolePermission
	if err := query.Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
