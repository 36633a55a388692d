package walletauth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) []byte {
	t.Helper()
	sig, errSign := crypto.Sign(personalSignDigest(message), key)
	if errSign != nil {
		t.Fatalf("sign message: %v", errSign)
	}
	return sig
}

func TestRecoverAddressRoundTrip(t *testing.T) {
	key, errKey := crypto.GenerateKey()
	if errKey != nil {
		t.Fatalf("generate key: %v", errKey)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)

	message := "healingbudstacks.com sign-in\nWallet: " + want.Hex() + "\nNonce: abc"
	sig := signMessage(t, key, message)

	got, errRecover := RecoverAddress(message, hex.EncodeToString(sig))
	if errRecover != nil {
		t.Fatalf("recover: %v", errRecover)
	}
	if got != want {
		t.Fatalf("recovered %s, want %s", got.Hex(), want.Hex())
	}
}

func TestRecoverAddressAcceptsBothVConventions(t *testing.T) {
	key, errKey := crypto.GenerateKey()
	if errKey != nil {
		t.Fatalf("generate key: %v", errKey)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)
	message := "convention check"
	sig := signMessage(t, key, message)

	// crypto.Sign produces v in {0,1}; wallets commonly send {27,28}.
	shifted := make([]byte, len(sig))
	copy(shifted, sig)
	shifted[64] += 27

	for _, encoded := range []string{
		hex.EncodeToString(sig),
		hex.EncodeToString(shifted),
		"0x" + hex.EncodeToString(shifted),
	} {
		got, errRecover := RecoverAddress(message, encoded)
		if errRecover != nil {
			t.Fatalf("recover %q: %v", encoded[:8], errRecover)
		}
		if got != want {
			t.Fatalf("recovered %s, want %s", got.Hex(), want.Hex())
		}
	}
}

func TestRecoverAddressRejectsMalformedSignatures(t *testing.T) {
	cases := []struct {
		name string
		sig  string
	}{
		{"not hex", "0xzz"},
		{"too short", "0x" + strings.Repeat("ab", 64)},
		{"too long", "0x" + strings.Repeat("ab", 66)},
		{"bad recovery id", "0x" + strings.Repeat("ab", 64) + "05"},
	}
	for _, tc := range cases {
		_, errRecover := RecoverAddress("msg", tc.sig)
		if !errors.Is(errRecover, ErrMalformedSignature) {
			t.Fatalf("%s: got %v, want ErrMalformedSignature", tc.name, errRecover)
		}
	}
}

func TestRecoverAddressTamperedSignatureNeverMatchesSigner(t *testing.T) {
	key, errKey := crypto.GenerateKey()
	if errKey != nil {
		t.Fatalf("generate key: %v", errKey)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	message := "tamper check"
	sig := signMessage(t, key, message)

	for i := 0; i < 64; i++ {
		tampered := make([]byte, len(sig))
		copy(tampered, sig)
		tampered[i] ^= 0x01

		got, errRecover := RecoverAddress(message, hex.EncodeToString(tampered))
		if errRecover == nil && got == signer {
			t.Fatalf("tampered byte %d still recovered the original signer", i)
		}
	}
}

func TestRecoverAddressTamperedMessageChangesSigner(t *testing.T) {
	key, errKey := crypto.GenerateKey()
	if errKey != nil {
		t.Fatalf("generate key: %v", errKey)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	sig := signMessage(t, key, "original message")

	got, errRecover := RecoverAddress("different message", hex.EncodeToString(sig))
	if errRecover == nil && got == signer {
		t.Fatal("different message recovered the original signer")
	}
}

func TestValidAddress(t *testing.T) {
	valid := []string{
		"0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		"0x0000000000000000000000000000000000000000",
	}
	for _, addr := range valid {
		if !ValidAddress(addr) {
			t.Fatalf("expected %s to be valid", addr)
		}
	}

	invalid := []string{
		"",
		"71C7656EC7ab88b098defB751B7401B5f6d8976F",
		"0x71C7656EC7ab88b098defB751B7401B5f6d8976",
		"0x71C7656EC7ab88b098defB751B7401B5f6d8976FF",
		"0xZZC7656EC7ab88b098defB751B7401B5f6d8976F",
	}
	for _, addr := range invalid {
		if ValidAddress(addr) {
			t.Fatalf("expected %s to be invalid", addr)
		}
	}
}
