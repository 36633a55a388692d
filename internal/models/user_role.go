package models

import "time"

// Role names granted through the user_roles table.
const (
	// RoleAdmin grants access to the administrative surface.
	RoleAdmin = "admin"
)

// UserRole is a join row granting a named role to a user.
type UserRole struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_user_roles_user_role"`                  // Owning user ID.
	Role   string `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_roles_user_role"` // Role name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Grant timestamp.
}
