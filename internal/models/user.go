package models

import (
	"time"

	"gorm.io/datatypes"
)

// Auth method identifiers stored on users.
const (
	// AuthMethodWallet marks accounts created through wallet signature login.
	AuthMethodWallet = "wallet"
)

// User represents an application account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email string `gorm:"type:text;not null;uniqueIndex"` // Resolved login email.

	WalletAddress string `gorm:"type:varchar(42);index"` // Lowercased wallet address, empty for non-wallet accounts.
	AuthMethod    string `gorm:"type:varchar(32)"`       // How the account authenticates, e.g. "wallet".

	NFTVerified           bool   `gorm:"not null;default:false"` // Whether gating-NFT ownership was confirmed.
	NFTVerificationMethod string `gorm:"type:varchar(16)"`       // "on-chain" or "fallback".

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Free-form account metadata.

	Active   bool `gorm:"not null;default:true"`  // Whether the account can sign in.
	Disabled bool `gorm:"not null;default:false"` // Operator kill switch.

	LastLoginAt *time.Time `` // Last successful login, nil before first login.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
