package walletauth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AuthMessage is the parsed form of the literal text a wallet signed.
type AuthMessage struct {
	Wallet   string    // Embedded wallet address, as written.
	Nonce    string    // Embedded nonce; empty for legacy messages.
	IssuedAt string    // Embedded issuance time; informational only.
	Unix     int64     // Embedded unix timestamp; legacy messages only.
	Legacy   bool      // True when the message carries a timestamp instead of a nonce.
	ParsedAt time.Time // When the server parsed the message.
}

// Message field labels scanned from the signed text.
const (
	walletLabel    = "Wallet:"
	nonceLabel     = "Nonce:"
	issuedAtLabel  = "Issued At:"
	timestampLabel = "Timestamp:"
)

// ParseAuthMessage extracts labeled fields from a signed message.
//
// Nonce-form messages must carry Wallet and Nonce lines; legacy messages carry
// Wallet and Timestamp lines. Any other shape is rejected. The embedded values
// are never trusted on their own; callers validate them against server state.
func ParseAuthMessage(message string) (*AuthMessage, error) {
	parsed := &AuthMessage{ParsedAt: time.Now().UTC()}

	for _, line := range strings.Split(message, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, walletLabel):
			parsed.Wallet = strings.TrimSpace(trimmed[len(walletLabel):])
		case strings.HasPrefix(trimmed, nonceLabel):
			parsed.Nonce = strings.TrimSpace(trimmed[len(nonceLabel):])
		case strings.HasPrefix(trimmed, issuedAtLabel):
			parsed.IssuedAt = strings.TrimSpace(trimmed[len(issuedAtLabel):])
		case strings.HasPrefix(trimmed, timestampLabel):
			raw := strings.TrimSpace(trimmed[len(timestampLabel):])
			unix, errParse := strconv.ParseInt(raw, 10, 64)
			if errParse != nil {
				return nil, validation(fmt.Errorf("%w: bad timestamp %q", ErrMalformedMessage, raw))
			}
			parsed.Unix = unix
		}
	}

	if !ValidAddress(parsed.Wallet) {
		return nil, validation(fmt.Errorf("%w: missing or malformed wallet line", ErrMalformedMessage))
	}

	switch {
	case parsed.Nonce != "":
		return parsed, nil
	case parsed.Unix != 0:
		parsed.Legacy = true
		return parsed, nil
	default:
		return nil, validation(fmt.Errorf("%w: neither nonce nor timestamp present", ErrMalformedMessage))
	}
}

// legacyWindow bounds how far a legacy timestamp may drift from server time.
const legacyWindow = 5 * time.Minute

// ValidateLegacyTimestamp checks a legacy message timestamp against server time.
func ValidateLegacyTimestamp(unix int64, now time.Time) error {
	at := time.Unix(unix, 0)
	if at.Before(now.Add(-legacyWindow)) || at.After(now.Add(legacyWindow)) {
		return authentication(ErrTimestampOutOfRange)
	}
	return nil
}
