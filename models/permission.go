package models

import "time"

// Permission is one atomic capability: an action on a resource within a
// scope ("self" or "all"). The composite unique index enforces that no two
// rows share the same (action, resource, scope) triple. Inactive rows stay
// in the table but are excluded from authorization decisions.
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"not null;uniqueIndex:idx_permission_tuple" json:"action"`
	Resource    string    `gorm:"not null;index;uniqueIndex:idx_permission_tuple" json:"resource"`
	Scope       string    `gorm:"not null;default:all;uniqueIndex:idx_permission_tuple" json:"scope"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
