package models

import "time"

// WalletLink maps a wallet address to an operator-assigned email identity.
//
// Rows are managed by operators; the authentication flow only reads them.
type WalletLink struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	WalletAddress string `gorm:"type:varchar(42);not null;uniqueIndex"` // Lowercased wallet address.
	Email         string `gorm:"type:text;not null"`                    // Linked account email.

	Active bool   `gorm:"not null;default:true"` // Inactive rows are ignored by resolution.
	Label  string `gorm:"type:text"`             // Operator note, e.g. holder name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
