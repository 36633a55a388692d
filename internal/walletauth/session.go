package walletauth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/security"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/util"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loginTokenTTL bounds how long a minted one-time login credential stays valid.
const loginTokenTTL = 15 * time.Minute

// SessionResult is the outcome of a successful session issuance.
type SessionResult struct {
	Email           string // Resolved account email.
	Token           string // Plaintext one-time login token, shown once.
	HashedToken     string // Stored bcrypt hash, for the identity-provider handoff.
	IsNewUser       bool   // True when the account was created by this request.
	IsLinkedAccount bool   // True when an operator mapping produced the email.
	Method          string // Ownership verification method carried through.
	UserID          uint64 // Issued account ID.
}

// SessionIssuer creates or refreshes application users after wallet
// verification and mints their one-time login credentials.
type SessionIssuer struct {
	db             *gorm.DB
	adminWhitelist map[string]struct{}
}

// NewSessionIssuer constructs a SessionIssuer with an injected admin allow-list.
func NewSessionIssuer(db *gorm.DB, adminWhitelist []string) *SessionIssuer {
	whitelist := make(map[string]struct{}, len(adminWhitelist))
	for _, addr := range adminWhitelist {
		whitelist[NormalizeAddress(addr)] = struct{}{}
	}
	return &SessionIssuer{db: db, adminWhitelist: whitelist}
}

// AdminEligible reports whether address is on the operator admin allow-list.
func (i *SessionIssuer) AdminEligible(address string) bool {
	_, ok := i.adminWhitelist[NormalizeAddress(address)]
	return ok
}

// IssueSession finds or creates the user for identity and mints a one-time
// login token.
//
// There is no partial success: either the caller gets an identity plus a
// usable token, or an infrastructure error. The user write is an upsert keyed
// on email, so two concurrent first logins for the same identity both succeed;
// one inserts, the other updates. The admin role is granted through an
// idempotent upsert only for allow-listed addresses; absence from the list
// never revokes an existing grant.
func (i *SessionIssuer) IssueSession(ctx context.Context, address string, ownership OwnershipResult, identity Identity) (*SessionResult, error) {
	normalized := NormalizeAddress(address)
	now := time.Now().UTC()

	// This read only decides the is_new_user flag and the metadata merge base;
	// the write below never depends on its outcome.
	var existing models.User
	errFind := i.db.WithContext(ctx).Where("email = ?", identity.Email).First(&existing).Error
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, infrastructure("find user", errFind)
	}
	isNew := errors.Is(errFind, gorm.ErrRecordNotFound)

	merged := walletMetadata(existing.Metadata, normalized, ownership.Method)
	row := models.User{
		Email:                 identity.Email,
		WalletAddress:         normalized,
		AuthMethod:            models.AuthMethodWallet,
		NFTVerified:           true,
		NFTVerificationMethod: ownership.Method,
		Metadata:              merged,
		Active:                true,
		LastLoginAt:           &now,
	}
	// The conflict update leaves active and disabled untouched so a wallet
	// login can never re-enable an account an operator turned off.
	if errUpsert := i.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"wallet_address":          normalized,
				"auth_method":             models.AuthMethodWallet,
				"nft_verified":            true,
				"nft_verification_method": ownership.Method,
				"metadata":                merged,
				"last_login_at":           now,
				"updated_at":              now,
			}),
		}).
		Create(&row).Error; errUpsert != nil {
		return nil, infrastructure("upsert user", errUpsert)
	}

	var user models.User
	if errLoad := i.db.WithContext(ctx).Where("email = ?", identity.Email).First(&user).Error; errLoad != nil {
		return nil, infrastructure("load user", errLoad)
	}
	if user.Disabled || !user.Active {
		return nil, authorization(ErrAccountInactive)
	}

	if i.AdminEligible(normalized) {
		grant := models.UserRole{UserID: user.ID, Role: models.RoleAdmin}
		if errGrant := i.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
				DoNothing: true,
			}).
			Create(&grant).Error; errGrant != nil {
			return nil, infrastructure("grant admin role", errGrant)
		}
		log.Infof("wallet auth: admin role granted to %s (%s)", util.MaskEmail(identity.Email), util.ShortAddress(normalized))
	}

	token, hash, errToken := security.GenerateLoginToken()
	if errToken != nil {
		return nil, infrastructure("mint login token", errToken)
	}
	record := models.LoginToken{
		Email:     identity.Email,
		TokenHash: hash,
		ExpiresAt: now.Add(loginTokenTTL),
	}
	if errCreate := i.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		return nil, infrastructure("store login token", errCreate)
	}

	return &SessionResult{
		Email:           identity.Email,
		Token:           token,
		HashedToken:     hash,
		IsNewUser:       isNew,
		IsLinkedAccount: identity.Linked,
		Method:          ownership.Method,
		UserID:          user.ID,
	}, nil
}

// Exchange redeems a one-time login token for its user.
//
// The used flag flips through a conditional UPDATE so a token can be redeemed
// at most once even under concurrent exchanges.
func (i *SessionIssuer) Exchange(ctx context.Context, email, token string) (*models.User, error) {
	now := time.Now().UTC()

	var candidates []models.LoginToken
	if errFind := i.db.WithContext(ctx).
		Where("email = ? AND used = ? AND expires_at > ?", email, false, now).
		Order("created_at DESC").
		Limit(5).
		Find(&candidates).Error; errFind != nil {
		return nil, infrastructure("find login tokens", errFind)
	}

	for _, candidate := range candidates {
		if !security.CheckLoginToken(candidate.TokenHash, token) {
			continue
		}
		res := i.db.WithContext(ctx).
			Model(&models.LoginToken{}).
			Where("id = ? AND used = ?", candidate.ID, false).
			Updates(map[string]any{"used": true, "used_at": now})
		if res.Error != nil {
			return nil, infrastructure("consume login token", res.Error)
		}
		if res.RowsAffected != 1 {
			return nil, authentication(ErrLoginTokenInvalid)
		}

		var user models.User
		if errUser := i.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; errUser != nil {
			return nil, infrastructure("load user", errUser)
		}
		if user.Disabled || !user.Active {
			return nil, authorization(ErrAccountInactive)
		}
		return &user, nil
	}
	return nil, authentication(ErrLoginTokenInvalid)
}

// walletMetadata merges wallet verification fields into existing metadata
// without touching unrelated keys.
func walletMetadata(existing datatypes.JSON, address, method string) datatypes.JSON {
	merged := map[string]any{}
	if len(existing) > 0 {
		// Unparseable previous metadata is replaced rather than propagated.
		_ = json.Unmarshal(existing, &merged)
	}
	merged["wallet_address"] = address
	merged["auth_method"] = models.AuthMethodWallet
	merged["nft_verified"] = true
	merged["nft_verification_method"] = method

	out, errMarshal := json.Marshal(merged)
	if errMarshal != nil {
		return existing
	}
	return datatypes.JSON(out)
}
