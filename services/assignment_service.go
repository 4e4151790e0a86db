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
	readRoleAssignmentSelf  = auth.NewPermission(auth.ActionRead, "role_assignment", auth.ScopeSelf)
	readRoleAssignmentAll   = auth.NewPermission(auth.ActionRead, "role_assignment", auth.ScopeAll)
	createRoleAssignmentAll = auth.NewPermission(auth.ActionCreate, "role_assignment", auth.ScopeAll)
	deleteRoleAssignmentAll = auth.NewPermission(auth.ActionDelete, "role_assignment", auth.ScopeAll)
	readPermAssignmentAll   = auth.NewPermission(auth.ActionRead, "permission_assignment", auth.ScopeAll)
	createPermAssignmentAll = auth.NewPermission(auth.ActionCreate, "permission_assignment", auth.ScopeAll)
	deletePermAssignmentAll = auth.NewPermission(auth.ActionDelete, "permission_assignment", auth.ScopeAll)
)

// AssignmentService manages both junctions: user↔role and role↔permission.
// Creation enforces that both endpoints exist and that no identical
// assignment is already in place; duplicates are rejected, never silently
// ignored.
type AssignmentService interface {
	CreateRoleAssignment(ctx context.Context, identity *auth.Identity, userID string, roleID uint) (*models.UserRole, error)
	DeleteRoleAssignment(ctx context.Context, identity *auth.Identity, userID string, roleID uint) error
	ListRoleAssignments(ctx context.Context, identity *auth.Identity, userID string, roleID uint) ([]models.UserRole, error)

	CreatePermissionAssignment(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) (*models.RolePermission, error)
	DeletePermissionAssignment(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) error
	ListPermissionAssignments(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) ([]models.RolePermission, error)
}

type assignmentService struct {
	assignments repositories.AssignmentRepository
	users       repositories.UserRepository
	roles       repositories.RoleRepository
	permissions repositories.PermissionRepository
	guard       *auth.Guard
	logger      *zap.Logger
}

var _ AssignmentService = (*assignmentService)(nil)

func NewAssignmentService(
	assignments repositories.AssignmentRepository,
	users repositories.UserRepository,
	roles repositories.RoleRepository,
	permissions repositories.PermissionRepository,
	guard *auth.Guard,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		users:       users,
		roles:       roles,
		permissions: permissions,
		guard:       guard,
		logger:      logger,
	}
}

func (s *assignmentService) CreateRoleAssignment(ctx context.Context, identity *auth.Identity, userID string, roleID uint) (*models.UserRole, error) {
	if err := s.guard.RequirePermissions(identity, createRoleAssignmentAll); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.UserNotFound()
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.RoleNotFound()
		}
		s.logger.Error("role lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	exists, err := s.assignments.UserRoleExists(ctx, userID, roleID)
	if err != nil {
		s.logger.Error("role assignment lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	if exists {
		return nil, apperrors.AssignmentAlreadyExists()
	}

	assignment := &models.UserRole{UserID: userID, RoleID: roleID}
	if err := s.assignments.CreateUserRole(ctx, assignment); err != nil {
		s.logger.Error("creating role assignment failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return assignment, nil
}

func (s *assignmentService) DeleteRoleAssignment(ctx context.Context, identity *auth.Identity, userID string, roleID uint) error {
	if err := s.guard.RequirePermissions(identity, deleteRoleAssignmentAll); err != nil {
		return err
	}

	deleted, err := s.assignments.DeleteUserRole(ctx, userID, roleID)
	if err != nil {
		s.logger.Error("deleting role assignment failed", zap.Error(err))
		return apperrors.Internal()
	}
	if !deleted {
		return apperrors.AssignmentNotFound()
	}
	return nil
}

// ListRoleAssignments applies the ownership escalation when filtering by
// user: querying your own assignments needs the "self" permission, anyone
// else's (or the unfiltered list) needs "all".
func (s *assignmentService) ListRoleAssignments(ctx context.Context, identity *auth.Identity, userID string, roleID uint) ([]models.UserRole, error) {
	if userID != "" {
		err := s.guard.RequireOwnership(identity, userID,
			[]auth.Permission{readRoleAssignmentSelf}, []auth.Permission{readRoleAssignmentAll})
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.guard.RequirePermissions(identity, readRoleAssignmentAll); err != nil {
			return nil, err
		}
	}

	assignments, err := s.assignments.ListUserRoles(ctx, userID, roleID)
	if err != nil {
		s.logger.Error("listing role assignments failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return assignments, nil
}

func (s *assignmentService) CreatePermissionAssignment(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) (*models.RolePermission, error) {
	if err := s.guard.RequirePermissions(identity, createPermAssignmentAll); err != nil {
		return nil, err
	}

	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.RoleNotFound()
		}
		s.logger.Error("role lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	if _, err := s.permissions.FindByID(ctx, permissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.PermissionNotFound()
		}
		s.logger.Error("permission lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	exists, err := s.assignments.RolePermissionExists(ctx, roleID, permissionID)
	if err != nil {
		s.logger.Error("permission assignment lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	if exists {
		return nil, apperrors.AssignmentAlreadyExists()
	}

	assignment := &models.RolePermission{RoleID: roleID, PermissionID: permissionID}
	if err := s.assignments.CreateRolePermission(ctx, assignment); err != nil {
		s.logger.Error("creating permission assignment failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return assignment, nil
}

func (s *assignmentService) DeletePermissionAssignment(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) error {
	if err := s.guard.RequirePermissions(identity, deletePermAssignmentAll); err != nil {
		return err
	}

	deleted, err := s.assignments.DeleteRolePermission(ctx, roleID, permissionID)
	if err != nil {
		s.logger.Error("deleting permission assignment failed", zap.Error(err))
		return apperrors.Internal()
	}
	if !deleted {
		return apperrors.AssignmentNotFound()
	}
	return nil
}

func (s *assignmentService) ListPermissionAssignments(ctx context.Context, identity *auth.Identity, roleID, permissionID uint) ([]models.RolePermission, error) {
	if err := s.guard.RequirePermissions(identity, readPermAssignmentAll); err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListRolePermissions(ctx, roleID, permissionID)
	if err != nil {
		s.logger.Error("listing permission assignments failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return assignments, nil
}
