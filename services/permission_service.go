package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"access-center/apperrors"
	"access-center/auth"
	"access-center/models"
	"access-center/repositories"
)

var (
	readPermissionAll   = auth.NewPermission(auth.ActionRead, "permission", auth.ScopeAll)
	createPermissionAll = auth.NewPermission(auth.ActionCreate, "permission", auth.ScopeAll)
	updatePermissionAll = auth.NewPermission(auth.ActionUpdate, "permission", auth.ScopeAll)
	deletePermissionAll = auth.NewPermission(auth.ActionDelete, "permission", auth.ScopeAll)
)

type PermissionInput struct {
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Scope       string `json:"scope"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// PermissionService is permission administration. The (action, resource,
// scope) triple is canonicalized to lowercase on the way in and kept unique.
type PermissionService interface {
	CreatePermission(ctx context.Context, identity *auth.Identity, input *PermissionInput) (*models.Permission, error)
	GetPermission(ctx context.Context, identity *auth.Identity, id uint) (*models.Permission, error)
	ListPermissions(ctx context.Context, identity *auth.Identity) ([]models.Permission, error)
	UpdatePermission(ctx context.Context, identity *auth.Identity, id uint, input *PermissionInput) (*models.Permission, error)
	DeletePermission(ctx context.Context, identity *auth.Identity, id uint) error
}

type permissionService struct {
	permissions repositories.PermissionRepository
	guard       *auth.Guard
	logger      *zap.Logger
}

var _ PermissionService = (*permissionService)(nil)

func NewPermissionService(permissions repositories.PermissionRepository, guard *auth.Guard, logger *zap.Logger) PermissionService {
	return &permissionService{permissions: permissions, guard: guard, logger: logger}
}

// CreatePermission rejects a duplicate triple, comparing the canonical
// lowercase form.
func (s *permissionService) CreatePermission(ctx context.Context, identity *auth.Identity, input *PermissionInput) (*models.Permission, error) {
	if err := s.guard.RequirePermissions(identity, createPermissionAll); err != nil {
		return nil, err
	}

	tuple := auth.NewPermission(input.Action, input.Resource, input.Scope)
	if exists, err := s.tupleExists(ctx, tuple); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.PermissionAlreadyExists()
	}

	permission := &models.Permission{
		Action:      tuple.Action,
		Resource:    tuple.Resource,
		Scope:       tuple.Scope,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		permission.IsActive = *input.IsActive
	}
	if err := s.permissions.Create(ctx, permission); err != nil {
		s.logger.Error("creating permission failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return permission, nil
}

func (s *permissionService) GetPermission(ctx context.Context, identity *auth.Identity, id uint) (*models.Permission, error) {
	if err := s.guard.RequirePermissions(identity, readPermissionAll); err != nil {
		return nil, err
	}
	return s.findPermission(ctx, id)
}

func (s *permissionService) ListPermissions(ctx context.Context, identity *auth.Identity) ([]models.Permission, error) {
	if err := s.guard.RequirePermissions(identity, readPermissionAll); err != nil {
		return nil, err
	}
	permissions, err := s.permissions.FindAll(ctx)
	if err != nil {
		s.logger.Error("listing permissions failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return permissions, nil
}

func (s *permissionService) UpdatePermission(ctx context.Context, identity *auth.Identity, id uint, input *PermissionInput) (*models.Permission, error) {
	if err := s.guard.RequirePermissions(identity, updatePermissionAll); err != nil {
		return nil, err
	}

	permission, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	action, resource, scope := permission.Action, permission.Resource, permission.Scope
	if input.Action != "" {
		action = input.Action
	}
	if input.Resource != "" {
		resource = input.Resource
	}
	if input.Scope != "" {
		scope = input.Scope
	}
	tuple := auth.NewPermission(action, resource, scope)

	tupleChanged := tuple.Action != permission.Action ||
		tuple.Resource != permission.Resource ||
		tuple.Scope != permission.Scope
	if tupleChanged {
		if exists, err := s.tupleExists(ctx, tuple); err != nil {
			return nil, err
		} else if exists {
			return nil, apperrors.PermissionAlreadyExists()
		}
		permission.Action = tuple.Action
		permission.Resource = tuple.Resource
		permission.Scope = tuple.Scope
	}
	if input.Description != "" {
		permission.Description = input.Description
	}
	if input.IsActive != nil {
		permission.IsActive = *input.IsActive
	}

	if err := s.permissions.Update(ctx, permission); err != nil {
		s.logger.Error("updating permission failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return permission, nil
}

// DeletePermission cascades the permission's role assignments.
func (s *permissionService) DeletePermission(ctx context.Context, identity *auth.Identity, id uint) error {
	if err := s.guard.RequirePermissions(identity, deletePermissionAll); err != nil {
		return err
	}

	permission, err := s.findPermission(ctx, id)
	if err != nil {
		return err
	}
	if err := s.permissions.Delete(ctx, permission); err != nil {
		s.logger.Error("deleting permission failed", zap.Error(err))
		return apperrors.Internal()
	}
	return nil
}

func (s *permissionService) tupleExists(ctx context.Context, tuple auth.Permission) (bool, error) {
	_, err := s.permissions.FindByTuple(ctx, tuple.Action, tuple.Resource, tuple.Scope)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("permission tuple lookup failed", zap.Error(err))
	return false, apperrors.Internal()
}

func (s *permissionService) findPermission(ctx context.Context, id uint) (*models.Permission, error) {
	permission, err := s.permissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.PermissionNotFound()
		}
		s.logger.Error("permission lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return permission, nil
}
