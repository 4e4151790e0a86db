package database

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"access-center/auth"
	"access-center/models"
)

// Open connects to MySQL, wires the explicit join tables and runs migrations.
func Open(databaseURL string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database connected and migrated")
	return db, nil
}

// Migrate registers the join table models and auto-migrates the schema. It is
// shared with tests that run against a different driver.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.User{}, "Roles", &models.UserRole{}); err != nil {
		return fmt.Errorf("setting up user_roles join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		return fmt.Errorf("setting up role_permissions join table: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
	); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// seedPermission pairs a permission triple with its description.
type seedPermission struct {
	perm        auth.Permission
	description string
}

func crudAll(resource string) []seedPermission {
	return []seedPermission{
		{auth.NewPermission(auth.ActionCreate, resource, auth.ScopeAll), "Create any " + resource},
		{auth.NewPermission(auth.ActionRead, resource, auth.ScopeAll), "Read any " + resource},
		{auth.NewPermission(auth.ActionUpdate, resource, auth.ScopeAll), "Update any " + resource},
		{auth.NewPermission(auth.ActionDelete, resource, auth.ScopeAll), "Delete any " + resource},
	}
}

// Seed creates the baseline permissions, the admin and user roles, and the
// initial admin account. Every step is idempotent so restarts are safe.
func Seed(db *gorm.DB, adminEmail, adminPassword string, logger *zap.Logger) error {
	seeds := crudAll("user")
	seeds = append(seeds, crudAll("role")...)
	seeds = append(seeds, crudAll("permission")...)
	seeds = append(seeds, crudAll("role_assignment")...)
	seeds = append(seeds, crudAll("permission_assignment")...)
	seeds = append(seeds,
		seedPermission{auth.NewPermission(auth.ActionRead, "user", auth.ScopeSelf), "Read own profile"},
		seedPermission{auth.NewPermission(auth.ActionUpdate, "user", auth.ScopeSelf), "Update own profile"},
		seedPermission{auth.NewPermission(auth.ActionDelete, "user", auth.ScopeSelf), "Delete own account"},
		seedPermission{auth.NewPermission(auth.ActionRead, "role_assignment", auth.ScopeSelf), "Read own role assignments"},
	)

	for _, s := range seeds {
		if err := ensurePermission(db, s); err != nil {
			return err
		}
	}

	// The admin role carries no explicit permissions; membership alone
	// bypasses permission checks.
	if err := ensureRole(db, auth.AdminRoleName, "Administrator with unrestricted access", nil); err != nil {
		return err
	}
	if err := ensureRole(db, "user", "Standard user", []auth.Permission{
		auth.NewPermission(auth.ActionRead, "user", auth.ScopeSelf),
		auth.NewPermission(auth.ActionUpdate, "user", auth.ScopeSelf),
		auth.NewPermission(auth.ActionDelete, "user", auth.ScopeSelf),
		auth.NewPermission(auth.ActionRead, "role", auth.ScopeAll),
		auth.NewPermission(auth.ActionRead, "permission", auth.ScopeAll),
		auth.NewPermission(auth.ActionRead, "role_assignment", auth.ScopeSelf),
	}); err != nil {
		return err
	}

	if adminPassword == "" {
		logger.Warn("Admin password not configured, skipping initial admin user")
		return nil
	}
	return ensureAdminUser(db, adminEmail, adminPassword, logger)
}

func ensurePermission(db *gorm.DB, s seedPermission) error {
	var existing models.Permission
	err := db.Where("action = ? AND resource = ? AND scope = ?",
		s.perm.Action, s.perm.Resource, s.perm.Scope).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("checking permission %s: %w", s.perm, err)
	}
	p := models.Permission{
		Action:      s.perm.Action,
		Resource:    s.perm.Resource,
		Scope:       s.perm.Scope,
		Description: s.description,
		IsActive:    true,
	}
	if err := db.Create(&p).Error; err != nil {
		return fmt.Errorf("seeding permission %s: %w", s.perm, err)
	}
	return nil
}

func ensureRole(db *gorm.DB, name, description string, perms []auth.Permission) error {
	var role models.Role
	err := db.Where("name = ?", name).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		role = models.Role{Name: name, Description: description, IsActive: true}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("seeding role %s: %w", name, err)
		}
	} else if err != nil {
		return fmt.Errorf("checking role %s: %w", name, err)
	}

	for _, perm := range perms {
		var p models.Permission
		if err := db.Where("action = ? AND resource = ? AND scope = ?",
			perm.Action, perm.Resource, perm.Scope).First(&p).Error; err != nil {
			return fmt.Errorf("finding permission %s for role %s: %w", perm, name, err)
		}
		var existing models.RolePermission
		err := db.Where("role_id = ? AND permission_id = ?", role.ID, p.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: p.ID}).Error; err != nil {
				return fmt.Errorf("assigning permission %s to role %s: %w", perm, name, err)
			}
		} else if err != nil {
			return fmt.Errorf("checking assignment of %s to role %s: %w", perm, name, err)
		}
	}
	return nil
}

func ensureAdminUser(db *gorm.DB, email, password string, logger *zap.Logger) error {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("checking admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin := models.User{
		Email:        email,
		FirstName:    "Admin",
		LastName:     "User",
		IsVerified:   true,
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	var adminRole models.Role
	if err := db.Where("name = ?", auth.AdminRoleName).First(&adminRole).Error; err != nil {
		return fmt.Errorf("finding admin role: %w", err)
	}
	if err := db.Create(&models.UserRole{UserID: admin.ID, RoleID: adminRole.ID}).Error; err != nil {
		return fmt.Errorf("assigning admin role: %w", err)
	}
	logger.Info("Created initial admin user", zap.String("email", email))
	return nil
}
