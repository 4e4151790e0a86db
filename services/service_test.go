package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"access-center/auth"
	"access-center/database"
	"access-center/models"
	"access-center/repositories"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestRole(t *testing.T, db *gorm.DB, name string) *models.Role {
	t.Helper()
	role := &models.Role{Name: name, Description: name + " role", IsActive: true}
	require.NoError(t, db.Create(role).Error)
	return role
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, FirstName: "Test", LastName: "User", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func adminIdentity() *auth.Identity {
	return &auth.Identity{
		UserID:      "admin-id",
		Email:       "admin@example.com",
		Roles:       []models.Role{{ID: 1, Name: auth.AdminRoleName, IsActive: true}},
		Permissions: auth.NewPermissionSet(),
	}
}

func identityWithPerms(userID, email string, perms ...auth.Permission) *auth.Identity {
	return &auth.Identity{
		UserID:      userID,
		Email:       email,
		Roles:       []models.Role{{ID: 2, Name: "user", IsActive: true}},
		Permissions: auth.NewPermissionSet(perms...),
	}
}

// memoryBlacklist is an in-process stand-in for the revocation store.
type memoryBlacklist struct {
	entries map[string]bool
	failing bool
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{entries: make(map[string]bool)}
}

func (m *memoryBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if m.failing {
		return errors.New("store unreachable")
	}
	if ttl <= 0 {
		return nil
	}
	m.entries[jti] = true
	return nil
}

func (m *memoryBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.failing {
		return false, errors.New("store unreachable")
	}
	return m.entries[jti], nil
}

type userServiceFixture struct {
	db        *gorm.DB
	service   UserService
	codec     *auth.TokenCodec
	blacklist *memoryBlacklist
}

func newUserServiceFixture(t *testing.T, strictLogout bool) *userServiceFixture {
	t.Helper()
	db := setupTestDB(t)
	createTestRole(t, db, DefaultRoleName)

	codec := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), zap.NewNop())
	blacklist := newMemoryBlacklist()
	service := NewUserService(
		repositories.NewUserRepository(db),
		repositories.NewRoleRepository(db),
		repositories.NewAssignmentRepository(db),
		codec,
		blacklist,
		auth.NewGuard(),
		zap.NewNop(),
		UserServiceConfig{
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 24 * time.Hour,
			StrictLogout:  strictLogout,
		},
	)
	return &userServiceFixture{db: db, service: service, codec: codec, blacklist: blacklist}
}
