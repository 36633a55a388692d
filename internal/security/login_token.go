package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the bcrypt work factor for login token hashes.
const bcryptCost = 10

// loginTokenBytes is the entropy of a minted login token.
const loginTokenBytes = 32

// GenerateLoginToken creates a one-time login credential.
//
// The plaintext token is handed to the client exactly once; only the bcrypt
// hash is stored.
func GenerateLoginToken() (token string, hash string, err error) {
	secret := make([]byte, loginTokenBytes)
	if _, err = io.ReadFull(rand.Reader, secret); err != nil {
		return "", "", fmt.Errorf("generate login token: %w", err)
	}
	token = hex.EncodeToString(secret)

	hashed, errHash := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if errHash != nil {
		return "", "", fmt.Errorf("hash login token: %w", errHash)
	}
	return token, string(hashed), nil
}

// CheckLoginToken compares a stored token hash with a presented plaintext token.
func CheckLoginToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
