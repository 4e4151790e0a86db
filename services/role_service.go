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
	readRoleAll   = auth.NewPermission(auth.ActionRead, "role", auth.ScopeAll)
	createRoleAll = auth.NewPermission(auth.ActionCreate, "role", auth.ScopeAll)
	updateRoleAll = auth.NewPermission(auth.ActionUpdate, "role", auth.ScopeAll)
	deleteRoleAll = auth.NewPermission(auth.ActionDelete, "role", auth.ScopeAll)
)

type RoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// RoleService is role administration: CRUD with the uniqueness and cascade
// invariants.
type RoleService interface {
	CreateRole(ctx context.Context, identity *auth.Identity, input *RoleInput) (*models.Role, error)
	GetRole(ctx context.Context, identity *auth.Identity, id uint) (*models.Role, error)
	ListRoles(ctx context.Context, identity *auth.Identity) ([]models.Role, error)
	UpdateRole(ctx context.Context, identity *auth.Identity, id uint, input *RoleInput) (*models.Role, error)
	DeleteRole(ctx context.Context, identity *auth.Identity, id uint) error
}

type roleService struct {
	roles  repositories.RoleRepository
	guard  *auth.Guard
	logger *zap.Logger
}

var _ RoleService = (*roleService)(nil)

func NewRoleService(roles repositories.RoleRepository, guard *auth.Guard, logger *zap.Logger) RoleService {
	return &roleService{roles: roles, guard: guard, logger: logger}
}

// CreateRole rejects duplicate names.
func (s *roleService) CreateRole(ctx context.Context, identity *auth.Identity, input *RoleInput) (*models.Role, error) {
	if err := s.guard.RequirePermissions(identity, createRoleAll); err != nil {
		return nil, err
	}

	_, err := s.roles.FindByName(ctx, input.Name)
	if err == nil {
		return nil, apperrors.RoleAlreadyExists()
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("role name lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	role := &models.Role{Name: input.Name, Description: input.Description, IsActive: true}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}
	if err := s.roles.Create(ctx, role); err != nil {
		s.logger.Error("creating role failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return role, nil
}

func (s *roleService) GetRole(ctx context.Context, identity *auth.Identity, id uint) (*models.Role, error) {
	if err := s.guard.RequirePermissions(identity, readRoleAll); err != nil {
		return nil, err
	}
	return s.findRole(ctx, id)
}

func (s *roleService) ListRoles(ctx context.Context, identity *auth.Identity) ([]models.Role, error) {
	if err := s.guard.RequirePermissions(identity, readRoleAll); err != nil {
		return nil, err
	}
	roles, err := s.roles.FindAll(ctx)
	if err != nil {
		s.logger.Error("listing roles failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return roles, nil
}

func (s *roleService) UpdateRole(ctx context.Context, identity *auth.Identity, id uint, input *RoleInput) (*models.Role, error) {
	if err := s.guard.RequirePermissions(identity, updateRoleAll); err != nil {
		return nil, err
	}

	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" && input.Name != role.Name {
		if _, err := s.roles.FindByName(ctx, input.Name); err == nil {
			return nil, apperrors.RoleAlreadyExists()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("role name lookup failed", zap.Error(err))
			return nil, apperrors.Internal()
		}
		role.Name = input.Name
	}
	if input.Description != "" {
		role.Description = input.Description
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}

	if err := s.roles.Update(ctx, role); err != nil {
		s.logger.Error("updating role failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return role, nil
}

// DeleteRole cascades the role's user and permission assignments; it never
// blocks on active assignments.
func (s *roleService) DeleteRole(ctx context.Context, identity *auth.Identity, id uint) error {
	if err := s.guard.RequirePermissions(identity, deleteRoleAll); err != nil {
		return err
	}

	role, err := s.findRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, role); err != nil {
		s.logger.Error("deleting role failed", zap.Error(err))
		return apperrors.Internal()
	}
	return nil
}

func (s *roleService) findRole(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.RoleNotFound()
		}
		s.logger.Error("role lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return role, nil
}
