package walletauth

import (
	"context"
	"strings"
	"testing"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
)

func TestResolveEmailSynthesizesPseudoEmail(t *testing.T) {
	conn := openTestDB(t)
	resolver := NewIdentityResolver(conn, "wallet.example.com")

	identity, errResolve := resolver.ResolveEmail(context.Background(), testWallet)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if identity.Linked {
		t.Fatal("unmapped wallet reported as linked")
	}
	want := strings.ToLower(testWallet) + "@wallet.example.com"
	if identity.Email != want {
		t.Fatalf("email = %s, want %s", identity.Email, want)
	}

	// Same address in a different case resolves identically.
	again, errResolve := resolver.ResolveEmail(context.Background(), "0x"+strings.ToUpper(testWallet[2:]))
	if errResolve != nil {
		t.Fatalf("resolve uppercase: %v", errResolve)
	}
	if again.Email != want {
		t.Fatalf("uppercase email = %s, want %s", again.Email, want)
	}
}

func TestResolveEmailUsesActiveMapping(t *testing.T) {
	conn := openTestDB(t)
	if errCreate := conn.Create(&models.WalletLink{
		WalletAddress: strings.ToLower(testWallet),
		Email:         "alice@example.com",
		Active:        true,
		Label:         "alice",
	}).Error; errCreate != nil {
		t.Fatalf("seed mapping: %v", errCreate)
	}

	resolver := NewIdentityResolver(conn, "wallet.example.com")
	identity, errResolve := resolver.ResolveEmail(context.Background(), testWallet)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if !identity.Linked {
		t.Fatal("mapped wallet not reported as linked")
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("email = %s, want alice@example.com", identity.Email)
	}
}

func TestResolveEmailIgnoresInactiveMapping(t *testing.T) {
	conn := openTestDB(t)
	if errCreate := conn.Create(&models.WalletLink{
		WalletAddress: strings.ToLower(testWallet),
		Email:         "retired@example.com",
	}).Error; errCreate != nil {
		t.Fatalf("seed mapping: %v", errCreate)
	}
	// A struct-literal Active: false is dropped by GORM because of the
	// default:true tag, so deactivate through an explicit column update.
	if errDeactivate := conn.Model(&models.WalletLink{}).
		Where("wallet_address = ?", strings.ToLower(testWallet)).
		Update("active", false).Error; errDeactivate != nil {
		t.Fatalf("deactivate mapping: %v", errDeactivate)
	}

	resolver := NewIdentityResolver(conn, "wallet.example.com")
	identity, errResolve := resolver.ResolveEmail(context.Background(), testWallet)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if identity.Linked {
		t.Fatal("inactive mapping treated as linked")
	}
	if identity.Email == "retired@example.com" {
		t.Fatal("inactive mapping email used")
	}
}

func TestLookupReportsAbsenceAsNil(t *testing.T) {
	conn := openTestDB(t)
	resolver := NewIdentityResolver(conn, "wallet.example.com")

	link, errLookup := resolver.Lookup(context.Background(), testWallet)
	if errLookup != nil {
		t.Fatalf("lookup: %v", errLookup)
	}
	if link != nil {
		t.Fatalf("lookup of unmapped wallet returned %+v", link)
	}

	if errCreate := conn.Create(&models.WalletLink{
		WalletAddress: strings.ToLower(testWallet),
		Email:         "alice@example.com",
		Active:        true,
	}).Error; errCreate != nil {
		t.Fatalf("seed mapping: %v", errCreate)
	}
	link, errLookup = resolver.Lookup(context.Background(), testWallet)
	if errLookup != nil {
		t.Fatalf("lookup: %v", errLookup)
	}
	if link == nil || link.Email != "alice@example.com" {
		t.Fatalf("lookup = %+v, want alice mapping", link)
	}
}
