package walletauth

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// addressPattern matches a strict 0x-prefixed 40-hex-digit wallet address.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether address is a well-formed wallet address.
func ValidAddress(address string) bool {
	return addressPattern.MatchString(strings.TrimSpace(address))
}

// NormalizeAddress lowercases a wallet address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// RecoverAddress recovers the signer of an EIP-191 personal-sign message.
//
// The signature is r||s||v hex, optionally 0x-prefixed; v is accepted in both
// the {0,1} and {27,28} conventions. The function is deterministic and performs
// no I/O.
func RecoverAddress(message string, signatureHex string) (common.Address, error) {
	trimmed := strings.TrimSpace(signatureHex)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	sig, errDecode := hex.DecodeString(trimmed)
	if errDecode != nil {
		return common.Address{}, validation(fmt.Errorf("%w: not hex", ErrMalformedSignature))
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, validation(fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedSignature, len(sig), crypto.SignatureLength))
	}

	v := sig[crypto.RecoveryIDOffset]
	if v == 27 || v == 28 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, validation(fmt.Errorf("%w: recovery id %d", ErrMalformedSignature, sig[crypto.RecoveryIDOffset]))
	}
	sig[crypto.RecoveryIDOffset] = v

	digest := personalSignDigest(message)
	pubKey, errRecover := crypto.SigToPub(digest, sig)
	if errRecover != nil {
		return common.Address{}, authentication(fmt.Errorf("%w: %v", ErrInvalidSignature, errRecover))
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// personalSignDigest hashes a message with the EIP-191 personal-sign prefix.
func personalSignDigest(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}
