package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"access-center/apperrors"
	"access-center/auth"
	"access-center/models"
	"access-center/repositories"
)

// DefaultRoleName is assigned to every freshly signed-up user.
const DefaultRoleName = "user"

// Permission tuples guarding user operations.
var (
	readUserSelf   = auth.NewPermission(auth.ActionRead, "user", auth.ScopeSelf)
	readUserAll    = auth.NewPermission(auth.ActionRead, "user", auth.ScopeAll)
	updateUserSelf = auth.NewPermission(auth.ActionUpdate, "user", auth.ScopeSelf)
	updateUserAll  = auth.NewPermission(auth.ActionUpdate, "user", auth.ScopeAll)
	deleteUserSelf = auth.NewPermission(auth.ActionDelete, "user", auth.ScopeSelf)
	deleteUserAll  = auth.NewPermission(auth.ActionDelete, "user", auth.ScopeAll)
)

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UpdateUserInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService covers signup, the credential lifecycle (login, refresh,
// logout) and ownership-gated user administration.
type UserService interface {
	Signup(ctx context.Context, input *SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, claims *auth.TokenClaims) (*TokenPair, error)
	Logout(ctx context.Context, claims *auth.TokenClaims) error
	GetUser(ctx context.Context, identity *auth.Identity, target string) (*models.User, error)
	ListUsers(ctx context.Context, identity *auth.Identity, page, pageSize int) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, identity *auth.Identity, target string, input *UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, identity *auth.Identity, target string) error
}

type userService struct {
	users       repositories.UserRepository
	roles       repositories.RoleRepository
	assignments repositories.AssignmentRepository
	codec       *auth.TokenCodec
	blacklist   auth.Blacklist
	guard       *auth.Guard
	logger      *zap.Logger

	accessExpiry  time.Duration
	refreshExpiry time.Duration
	// strictLogout decides whether a failed revocation write during logout
	// fails the request or degrades to a warning. Deployment policy.
	strictLogout bool
}

var _ UserService = (*userService)(nil)

type UserServiceConfig struct {
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	StrictLogout  bool
}

func NewUserService(
	users repositories.UserRepository,
	roles repositories.RoleRepository,
	assignments repositories.AssignmentRepository,
	codec *auth.TokenCodec,
	blacklist auth.Blacklist,
	guard *auth.Guard,
	logger *zap.Logger,
	cfg UserServiceConfig,
) UserService {
	return &userService{
		users:         users,
		roles:         roles,
		assignments:   assignments,
		codec:         codec,
		blacklist:     blacklist,
		guard:         guard,
		logger:        logger,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		strictLogout:  cfg.StrictLogout,
	}
}

// Signup creates the user with a bcrypt password hash and assigns the
// default role.
func (s *userService) Signup(ctx context.Context, input *SignupInput) (*models.User, error) {
	_, err := s.users.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperrors.UserEmailExists()
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("checking existing user failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal()
	}

	user := &models.User{
		Email:        strings.ToLower(input.Email),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("creating user failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	defaultRole, err := s.roles.FindByName(ctx, DefaultRoleName)
	if err != nil {
		s.logger.Error("default role lookup failed", zap.String("role", DefaultRoleName), zap.Error(err))
		return nil, apperrors.Internal()
	}
	assignment := &models.UserRole{UserID: user.ID, RoleID: defaultRole.ID}
	if err := s.assignments.CreateUserRole(ctx, assignment); err != nil {
		s.logger.Error("default role assignment failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	return user, nil
}

// Login verifies the credentials and issues an access/refresh token pair.
// The access token carries a display-only snapshot of the user's roles; the
// refresh token carries none.
func (s *userService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmailWithRoles(ctx, email)
	if err != nil {
		// Same rejection whether the user is missing or the password is
		// wrong, to avoid leaking which emails exist.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}
	if !user.IsVerified {
		return nil, apperrors.UserNotVerified()
	}

	return s.issuePair(user)
}

// Refresh exchanges a verified refresh token for a new pair. The presented
// token's jti is revoked first; if the revocation write fails the exchange
// fails, since completing it would leave two live refresh tokens.
func (s *userService) Refresh(ctx context.Context, claims *auth.TokenClaims) (*TokenPair, error) {
	user, err := s.users.FindByID(ctx, claims.User.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidRefreshToken()
		}
		s.logger.Error("refresh lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingLifetime()); err != nil {
		s.logger.Error("revoking refresh token failed", zap.String("jti", claims.ID), zap.Error(err))
		return nil, apperrors.RevocationFailed()
	}

	withRoles, err := s.users.FindByEmailWithRoles(ctx, user.Email)
	if err != nil {
		s.logger.Error("refresh role lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return s.issuePair(withRoles)
}

// Logout revokes the presented access token for the rest of its lifetime.
// A failed write leaves a token valid that the caller wanted dead, so in
// strict mode the request fails loudly; otherwise it degrades to a warning.
func (s *userService) Logout(ctx context.Context, claims *auth.TokenClaims) error {
	err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingLifetime())
	if err == nil {
		return nil
	}
	if s.strictLogout {
		s.logger.Error("revoking access token failed", zap.String("jti", claims.ID), zap.Error(err))
		return apperrors.RevocationFailed()
	}
	s.logger.Warn("revoking access token failed, token remains valid until expiry",
		zap.String("jti", claims.ID), zap.Error(err))
	return nil
}

// GetUser returns the target user. The ownership check runs before the
// lookup so a caller without read:user:all never learns whether the target
// exists.
func (s *userService) GetUser(ctx context.Context, identity *auth.Identity, target string) (*models.User, error) {
	if err := s.guard.RequireOwnership(identity, target,
		[]auth.Permission{readUserSelf}, []auth.Permission{readUserAll}); err != nil {
		return nil, err
	}
	return s.findByIDOrEmail(ctx, target)
}

func (s *userService) ListUsers(ctx context.Context, identity *auth.Identity, page, pageSize int) ([]models.User, int64, error) {
	if err := s.guard.RequirePermissions(identity, readUserAll); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.FindAll(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("listing users failed", zap.Error(err))
		return nil, 0, apperrors.Internal()
	}
	return users, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, identity *auth.Identity, target string, input *UpdateUserInput) (*models.User, error) {
	if err := s.guard.RequireOwnership(identity, target,
		[]auth.Permission{updateUserSelf}, []auth.Permission{updateUserAll}); err != nil {
		return nil, err
	}

	user, err := s.findByIDOrEmail(ctx, target)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.FirstName != nil && *input.FirstName != user.FirstName {
		user.FirstName = *input.FirstName
		changed = true
	}
	if input.LastName != nil && *input.LastName != user.LastName {
		user.LastName = *input.LastName
		changed = true
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Internal()
		}
		user.PasswordHash = string(hash)
		changed = true
	}

	if changed {
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.Error("updating user failed", zap.Error(err))
			return nil, apperrors.Internal()
		}
	}
	return user, nil
}

// DeleteUser removes the user and cascades its role assignments.
func (s *userService) DeleteUser(ctx context.Context, identity *auth.Identity, target string) error {
	if err := s.guard.RequireOwnership(identity, target,
		[]auth.Permission{deleteUserSelf}, []auth.Permission{deleteUserAll}); err != nil {
		return err
	}

	user, err := s.findByIDOrEmail(ctx, target)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user); err != nil {
		s.logger.Error("deleting user failed", zap.Error(err))
		return apperrors.Internal()
	}
	return nil
}

func (s *userService) issuePair(user *models.User) (*TokenPair, error) {
	snapshot := make([]auth.TokenRole, 0, len(user.Roles))
	for _, role := range user.Roles {
		snapshot = append(snapshot, auth.TokenRole{ID: role.ID, Name: role.Name, IsActive: role.IsActive})
	}
	subject := auth.TokenUser{ID: user.ID, Email: user.Email, Roles: snapshot}

	accessToken, err := s.codec.IssueToken(subject, s.accessExpiry, false)
	if err != nil {
		s.logger.Error("issuing access token failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	refreshToken, err := s.codec.IssueToken(subject, s.refreshExpiry, true)
	if err != nil {
		s.logger.Error("issuing refresh token failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// findByIDOrEmail resolves a target identifier that may be either a user id
// or an email address.
func (s *userService) findByIDOrEmail(ctx context.Context, target string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(target, "@") {
		user, err = s.users.FindByEmail(ctx, target)
	} else {
		user, err = s.users.FindByID(ctx, target)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.UserNotFound()
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return nil, apperrors.Internal()
	}
	return user, nil
}
