package walletauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/util"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Nonce lifecycle windows.
const (
	// NonceTTL is the cryptographic validity window of an issued nonce.
	NonceTTL = 5 * time.Minute
	// NonceRetention is the storage-hygiene horizon; rows older than this are
	// swept regardless of state. Distinct from NonceTTL on purpose.
	NonceRetention = time.Hour
)

// NonceStore persists single-use signing challenges.
type NonceStore struct {
	db *gorm.DB
}

// NewNonceStore constructs a NonceStore.
func NewNonceStore(db *gorm.DB) *NonceStore {
	return &NonceStore{db: db}
}

// ValidPurpose reports whether purpose is one of the recognized nonce purposes.
func ValidPurpose(purpose string) bool {
	switch purpose {
	case models.NoncePurposeLogin, models.NoncePurposeCreate, models.NoncePurposeLink, models.NoncePurposeDelete:
		return true
	}
	return false
}

// Issue creates a fresh nonce for (address, purpose).
//
// Old records past the retention horizon are swept opportunistically before the
// insert; a sweep failure is logged and does not block issuance.
func (s *NonceStore) Issue(ctx context.Context, address, purpose string) (*models.WalletNonce, error) {
	if !ValidAddress(address) {
		return nil, validation(ErrMalformedAddress)
	}
	if !ValidPurpose(purpose) {
		return nil, validation(ErrMalformedPurpose)
	}

	now := time.Now().UTC()
	if errSweep := s.db.WithContext(ctx).
		Where("issued_at < ?", now.Add(-NonceRetention)).
		Delete(&models.WalletNonce{}).Error; errSweep != nil {
		log.WithError(errSweep).Warn("nonce store: opportunistic sweep failed")
	}

	record := models.WalletNonce{
		Address:   NormalizeAddress(address),
		Nonce:     uuid.NewString(),
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(NonceTTL),
		Used:      false,
	}
	if errCreate := s.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		return nil, infrastructure("create nonce", errCreate)
	}
	return &record, nil
}

// Consume atomically marks the (address, nonce, purpose) record used.
//
// The transition is a single conditional UPDATE guarded on used=false and the
// expiry cutoff, so two concurrent attempts for the same nonce can never both
// succeed. The follow-up read only classifies the rejection reason.
func (s *NonceStore) Consume(ctx context.Context, address, nonce, purpose string) error {
	return s.consumeAt(ctx, address, nonce, purpose, time.Now().UTC())
}

// consumeAt is Consume with an explicit decision instant. The same instant
// guards the UPDATE and classifies the rejection, so a nonce expiring exactly
// at that instant reports ErrNonceExpired.
func (s *NonceStore) consumeAt(ctx context.Context, address, nonce, purpose string, now time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.WalletNonce{}).
		Where("nonce = ? AND address = ? AND purpose = ? AND used = ? AND expires_at > ?",
			nonce, NormalizeAddress(address), purpose, false, now).
		Updates(map[string]any{"used": true, "used_at": now})
	if res.Error != nil {
		return infrastructure("consume nonce", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var record models.WalletNonce
	errFind := s.db.WithContext(ctx).
		Where("nonce = ? AND address = ? AND purpose = ?", nonce, NormalizeAddress(address), purpose).
		First(&record).Error
	switch {
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		return authentication(ErrNonceNotFound)
	case errFind != nil:
		return infrastructure("classify nonce rejection", errFind)
	case record.Used:
		return authentication(ErrNonceAlreadyUsed)
	case !record.ExpiresAt.After(now):
		return authentication(ErrNonceExpired)
	default:
		// Lost a race against a concurrent consumer between UPDATE and read.
		log.Infof("nonce store: raced consume for %s", util.ShortAddress(address))
		return authentication(ErrNonceAlreadyUsed)
	}
}
