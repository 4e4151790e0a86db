package auth

import (
	"context"

	"access-center/models"
)

// AdminRoleName is the reserved role granting universal bypass. It is never
// explicitly enumerated in permission assignments; IsAdmin is the single
// place the name is compared.
const AdminRoleName = "admin"

// Identity is the authorization view of a user: the current active roles
// and the effective permission set derived from them. It is always built
// from live repository state, never from the role snapshot embedded in a
// token.
type Identity struct {
	UserID      string
	Email       string
	Roles       []models.Role
	Permissions PermissionSet
}

func (id *Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r.Name == AdminRoleName {
			return true
		}
	}
	return false
}

// IdentityStore is the repository capability the resolver consumes. Both
// listing methods return active rows only.
type IdentityStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListActiveRoles(ctx context.Context, userID string) ([]models.Role, error)
	ListActivePermissions(ctx context.Context, roleID uint) ([]models.Permission, error)
}

// IdentityResolver loads the roles and, transitively, the permissions of a
// verified token subject. This is a read-only projection of current
// database state.
type IdentityResolver struct {
	store IdentityStore
}

func NewIdentityResolver(store IdentityStore) *IdentityResolver {
	return &IdentityResolver{store: store}
}

func (r *IdentityResolver) Resolve(ctx context.Context, userID string) (*Identity, error) {
	user, err := r.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := r.store.ListActiveRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	perms := NewPermissionSet()
	for _, role := range roles {
		assigned, err := r.store.ListActivePermissions(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range assigned {
			perms.Add(NewPermission(p.Action, p.Resource, p.Scope))
		}
	}

	return &Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Roles:       roles,
		Permissions: perms,
	}, nil
}
