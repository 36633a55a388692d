package walletauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"gorm.io/gorm"
)

// Identity is the application identity a verified wallet resolves to.
type Identity struct {
	Email  string // Resolved login email.
	Linked bool   // True when an operator-managed mapping row produced the email.
}

// IdentityResolver maps verified wallet addresses to application identities.
//
// Resolution is total: an address without an operator mapping synthesizes a
// deterministic pseudo-email so every verified wallet has some identity.
type IdentityResolver struct {
	db          *gorm.DB
	emailDomain string
}

// NewIdentityResolver constructs an IdentityResolver.
func NewIdentityResolver(db *gorm.DB, emailDomain string) *IdentityResolver {
	return &IdentityResolver{db: db, emailDomain: emailDomain}
}

// ResolveEmail returns the identity for address.
//
// The mapping table is read by lowercased address; inactive rows are ignored.
func (r *IdentityResolver) ResolveEmail(ctx context.Context, address string) (Identity, error) {
	normalized := NormalizeAddress(address)

	var link models.WalletLink
	errFind := r.db.WithContext(ctx).
		Where("wallet_address = ? AND active = ?", normalized, true).
		First(&link).Error
	switch {
	case errFind == nil:
		return Identity{Email: link.Email, Linked: true}, nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		return Identity{Email: fmt.Sprintf("%s@%s", normalized, r.emailDomain), Linked: false}, nil
	default:
		return Identity{}, infrastructure("resolve wallet mapping", errFind)
	}
}

// Lookup returns the active mapping row for address, if any.
//
// Used by the diagnostic endpoint; absence is reported, not an error.
func (r *IdentityResolver) Lookup(ctx context.Context, address string) (*models.WalletLink, error) {
	var link models.WalletLink
	errFind := r.db.WithContext(ctx).
		Where("wallet_address = ? AND active = ?", NormalizeAddress(address), true).
		First(&link).Error
	switch {
	case errFind == nil:
		return &link, nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, infrastructure("lookup wallet mapping", errFind)
	}
}
