package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 42, "alice@example.com", "0xabc", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseSessionToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.Email != "alice@example.com" || claims.WalletAddress != "0xabc" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestSessionTokenRejectsWrongSecret(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 1, "a@b.c", "", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseSessionToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", errParse)
	}
}

func TestSessionTokenRejectsExpired(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 1, "a@b.c", "", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseSessionToken("secret", token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", errParse)
	}
}

func TestLoginTokenHashMatchesOnlyItsToken(t *testing.T) {
	token, hash, errGen := GenerateLoginToken()
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if token == "" || hash == "" {
		t.Fatal("empty token or hash")
	}
	if !CheckLoginToken(hash, token) {
		t.Fatal("hash rejects its own token")
	}
	if CheckLoginToken(hash, token+"0") {
		t.Fatal("hash accepts a tampered token")
	}

	other, _, errGen := GenerateLoginToken()
	if errGen != nil {
		t.Fatalf("generate second: %v", errGen)
	}
	if other == token {
		t.Fatal("token generation is not unique")
	}
	if CheckLoginToken(hash, other) {
		t.Fatal("hash accepts a different token")
	}
}
