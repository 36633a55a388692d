package walletauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/security"
)

func onChainOwnership() OwnershipResult {
	return OwnershipResult{Owns: true, Method: MethodOnChain, Balance: big.NewInt(1)}
}

func TestIssueSessionCreatesNewUser(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	identity := Identity{Email: strings.ToLower(testWallet) + "@wallet.example.com"}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	if !result.IsNewUser {
		t.Fatal("first issuance not reported as new user")
	}
	if result.IsLinkedAccount {
		t.Fatal("pseudo-email identity reported as linked")
	}
	if result.Token == "" || result.HashedToken == "" {
		t.Fatal("issuance returned empty credentials")
	}
	if !security.CheckLoginToken(result.HashedToken, result.Token) {
		t.Fatal("returned hash does not match returned token")
	}

	var user models.User
	if errFind := conn.Where("email = ?", identity.Email).First(&user).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if user.WalletAddress != strings.ToLower(testWallet) {
		t.Fatalf("wallet_address = %s, want lowercase %s", user.WalletAddress, testWallet)
	}
	if !user.NFTVerified || user.NFTVerificationMethod != MethodOnChain {
		t.Fatalf("verification fields = %v/%s", user.NFTVerified, user.NFTVerificationMethod)
	}
	if user.LastLoginAt == nil {
		t.Fatal("last_login_at not set")
	}
}

func TestIssueSessionRefreshesExistingUserAndKeepsMetadata(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	email := "alice@example.com"

	seed := models.User{
		Email:    email,
		Metadata: []byte(`{"plan":"pro","preferences":{"theme":"dark"}}`),
		Active:   true,
	}
	if errCreate := conn.Create(&seed).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), Identity{Email: email, Linked: true})
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	if result.IsNewUser {
		t.Fatal("existing user reported as new")
	}
	if !result.IsLinkedAccount {
		t.Fatal("linked identity not reported as linked")
	}
	if result.UserID != seed.ID {
		t.Fatalf("user id = %d, want %d", result.UserID, seed.ID)
	}

	var user models.User
	if errFind := conn.First(&user, seed.ID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	var meta map[string]any
	if errParse := json.Unmarshal(user.Metadata, &meta); errParse != nil {
		t.Fatalf("parse metadata: %v", errParse)
	}
	if meta["plan"] != "pro" {
		t.Fatalf("unrelated metadata key lost: %v", meta)
	}
	if meta["wallet_address"] != strings.ToLower(testWallet) {
		t.Fatalf("wallet_address metadata = %v", meta["wallet_address"])
	}
	if meta["nft_verification_method"] != MethodOnChain {
		t.Fatalf("nft_verification_method metadata = %v", meta["nft_verification_method"])
	}
}

func TestIssueSessionGrantsAdminOnlyWhenAllowListed(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, []string{testWallet})
	identity := Identity{Email: strings.ToLower(testWallet) + "@wallet.example.com"}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	var grants int64
	if errCount := conn.Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", result.UserID, models.RoleAdmin).
		Count(&grants).Error; errCount != nil {
		t.Fatalf("count grants: %v", errCount)
	}
	if grants != 1 {
		t.Fatalf("admin grants = %d, want 1", grants)
	}

	// A second issuance must not duplicate the grant.
	if _, errIssue = issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity); errIssue != nil {
		t.Fatalf("reissue: %v", errIssue)
	}
	if errCount := conn.Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", result.UserID, models.RoleAdmin).
		Count(&grants).Error; errCount != nil {
		t.Fatalf("recount grants: %v", errCount)
	}
	if grants != 1 {
		t.Fatalf("admin grants after reissue = %d, want 1", grants)
	}

	// Non-listed wallets never receive the role.
	outsider := NewSessionIssuer(conn, nil)
	other := Identity{Email: "other@example.com"}
	result, errIssue = outsider.IssueSession(context.Background(), "0x0000000000000000000000000000000000000009", onChainOwnership(), other)
	if errIssue != nil {
		t.Fatalf("issue outsider: %v", errIssue)
	}
	if errCount := conn.Model(&models.UserRole{}).
		Where("user_id = ?", result.UserID).
		Count(&grants).Error; errCount != nil {
		t.Fatalf("count outsider grants: %v", errCount)
	}
	if grants != 0 {
		t.Fatalf("outsider grants = %d, want 0", grants)
	}
}

func TestIssueSessionConcurrentFirstLoginsAllSucceed(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	ctx := context.Background()

	const workers = 8
	for round := 0; round < 20; round++ {
		identity := Identity{Email: fmt.Sprintf("holder-%d@example.com", round)}

		results := make(chan error, workers)
		for w := 0; w < workers; w++ {
			go func() {
				_, errIssue := issuer.IssueSession(ctx, testWallet, onChainOwnership(), identity)
				results <- errIssue
			}()
		}
		for w := 0; w < workers; w++ {
			if errIssue := <-results; errIssue != nil {
				t.Fatalf("round %d: concurrent issuance failed: %v", round, errIssue)
			}
		}

		var users int64
		if errCount := conn.Model(&models.User{}).Where("email = ?", identity.Email).Count(&users).Error; errCount != nil {
			t.Fatalf("round %d: count users: %v", round, errCount)
		}
		if users != 1 {
			t.Fatalf("round %d: users = %d, want 1", round, users)
		}
	}
}

func TestIssueSessionRejectsDeactivatedAccount(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	email := "retired@example.com"

	if errCreate := conn.Create(&models.User{Email: email}).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	// A struct-literal Active: false is dropped by GORM because of the
	// default:true tag, so deactivate through an explicit column update.
	if errDeactivate := conn.Model(&models.User{}).
		Where("email = ?", email).
		Update("active", false).Error; errDeactivate != nil {
		t.Fatalf("deactivate user: %v", errDeactivate)
	}

	_, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), Identity{Email: email})
	if !errors.Is(errIssue, ErrAccountInactive) {
		t.Fatalf("got %v, want ErrAccountInactive", errIssue)
	}

	// The login never re-enables the account.
	var user models.User
	if errFind := conn.Where("email = ?", email).First(&user).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if user.Active {
		t.Fatal("wallet login re-enabled a deactivated account")
	}
}

func TestExchangeRejectsDeactivatedAccount(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	identity := Identity{Email: "alice@example.com"}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	if errDeactivate := conn.Model(&models.User{}).
		Where("email = ?", identity.Email).
		Update("active", false).Error; errDeactivate != nil {
		t.Fatalf("deactivate user: %v", errDeactivate)
	}

	if _, errExchange := issuer.Exchange(context.Background(), identity.Email, result.Token); !errors.Is(errExchange, ErrAccountInactive) {
		t.Fatalf("got %v, want ErrAccountInactive", errExchange)
	}
}

func TestExchangeRedeemsTokenExactlyOnce(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	identity := Identity{Email: "alice@example.com", Linked: true}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	user, errExchange := issuer.Exchange(context.Background(), identity.Email, result.Token)
	if errExchange != nil {
		t.Fatalf("exchange: %v", errExchange)
	}
	if user.Email != identity.Email {
		t.Fatalf("exchanged user = %s, want %s", user.Email, identity.Email)
	}

	if _, errExchange = issuer.Exchange(context.Background(), identity.Email, result.Token); !errors.Is(errExchange, ErrLoginTokenInvalid) {
		t.Fatalf("second redeem: got %v, want ErrLoginTokenInvalid", errExchange)
	}
}

func TestExchangeRejectsWrongTokenAndExpired(t *testing.T) {
	conn := openTestDB(t)
	issuer := NewSessionIssuer(conn, nil)
	identity := Identity{Email: "alice@example.com"}

	result, errIssue := issuer.IssueSession(context.Background(), testWallet, onChainOwnership(), identity)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	if _, errExchange := issuer.Exchange(context.Background(), identity.Email, "deadbeef"); !errors.Is(errExchange, ErrLoginTokenInvalid) {
		t.Fatalf("wrong token: got %v, want ErrLoginTokenInvalid", errExchange)
	}
	if _, errExchange := issuer.Exchange(context.Background(), "other@example.com", result.Token); !errors.Is(errExchange, ErrLoginTokenInvalid) {
		t.Fatalf("wrong email: got %v, want ErrLoginTokenInvalid", errExchange)
	}

	if errExpire := conn.Model(&models.LoginToken{}).
		Where("email = ?", identity.Email).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error; errExpire != nil {
		t.Fatalf("expire token: %v", errExpire)
	}
	if _, errExchange := issuer.Exchange(context.Background(), identity.Email, result.Token); !errors.Is(errExchange, ErrLoginTokenInvalid) {
		t.Fatalf("expired token: got %v, want ErrLoginTokenInvalid", errExchange)
	}
}
