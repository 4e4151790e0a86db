package repositories

import (
	"context"

	"gorm.io/gorm"

	"access-center/models"
)

// PermissionRepository defines permission-related database operations.
type PermissionRepository interface {
	Create(ctx context.Context, permission *models.Permission) error
	FindByID(ctx context.Context, id uint) (*models.Permission, error)
	FindByTuple(ctx context.Context, action, resource, scope string) (*models.Permission, error)
	FindAll(ctx context.Context) ([]models.Permission, error)
	Update(ctx context.Context, permission *models.Permission) error
	Delete(ctx context.Context, permission *models.Permission) error
}

type permissionRepository struct {
	db *gorm.DB
}

var _ PermissionRepository = (*permissionRepository)(nil)

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, permission *models.Permission) error {
	return r.db.WithContext(ctx).Create(permission).Error
}

func (r *permissionRepository) FindByID(ctx context.Context, id uint) (*models.Permission, error) {
	var permission models.Permission
	if err := r.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		return nil, err
	}
	return &permission, nil
}

func (r *permissionRepository) FindByTuple(ctx context.Context, action, resource, scope string) (*models.Permission, error) {
	var permission models.Permission
	err := r.db.WithContext(ctx).
		Where("action = ? AND resource = ? AND scope = ?", action, resource, scope).
		First(&permission).Error
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

func (r *permissionRepository) FindAll(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := r.db.WithContext(ctx).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *permissionRepository) Update(ctx context.Context, permission *models.Permission) error {
	return r.db.WithContext(ctx).Save(permission).Error
}

// Delete removes the permission and cascades its role assignments. The
// roles that referenced it survive.
func (r *permissionRepository) Delete(ctx context.Context, permission *models.Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", permission.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(permission).Error
	})
}
