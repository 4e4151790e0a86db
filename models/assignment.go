package models

import "time"

// UserRole joins users to roles. The composite primary key keeps exactly one
// assignment per (user, role) pair.
type UserRole struct {
	UserID     string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	RoleID     uint      `gorm:"primaryKey" json:"role_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}

// RolePermission joins roles to permissions, one row per (role, permission)
// pair.
type RolePermission struct {
	RoleID       uint      `gorm:"primaryKey" json:"role_id"`
	PermissionID uint      `gorm:"primaryKey" json:"permission_id"`
	AssignedAt   time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}
