package models

import "time"

// Nonce purposes recognized by the wallet authentication flow.
const (
	// NoncePurposeLogin is issued for sign-in attempts.
	NoncePurposeLogin = "login"
	// NoncePurposeCreate is issued for account creation.
	NoncePurposeCreate = "create"
	// NoncePurposeLink is issued for linking a wallet to an existing account.
	NoncePurposeLink = "link"
	// NoncePurposeDelete is issued for account deletion confirmation.
	NoncePurposeDelete = "delete"
)

// WalletNonce stores a single-use signing challenge issued to a wallet.
type WalletNonce struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Address string `gorm:"type:varchar(42);not null;index"`   // Lowercased wallet address.
	Nonce   string `gorm:"type:varchar(36);not null;uniqueIndex"` // Random UUID challenge value.
	Purpose string `gorm:"type:varchar(16);not null"`         // One of the NoncePurpose* values.

	IssuedAt  time.Time `gorm:"not null"`       // When the nonce was issued.
	ExpiresAt time.Time `gorm:"not null;index"` // Hard validity cutoff.

	Used   bool       `gorm:"not null;default:false"` // Set exactly once on successful verification.
	UsedAt *time.Time ``                              // When the nonce was consumed, nil while unused.
}
