package models

import "time"

// LoginToken stores the hashed half of a one-time magic-link credential.
//
// The plaintext token is returned to the caller once and never persisted.
type LoginToken struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email     string `gorm:"type:text;not null;index"` // Account email the token is bound to.
	TokenHash string `gorm:"type:text;not null"`       // bcrypt hash of the plaintext token.

	ExpiresAt time.Time  `gorm:"not null;index"`         // Hard validity cutoff.
	Used      bool       `gorm:"not null;default:false"` // Set exactly once on exchange.
	UsedAt    *time.Time ``                              // When the token was exchanged.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
