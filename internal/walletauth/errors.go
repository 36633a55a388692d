package walletauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies wallet authentication failures for transport mapping.
type Kind int

// Failure kinds, ordered from client fault to server fault.
const (
	// KindValidation covers malformed addresses, purposes and signature encodings.
	KindValidation Kind = iota
	// KindAuthentication covers signature mismatches and nonce failures.
	KindAuthentication
	// KindAuthorization covers verified signers that do not hold the gating NFT.
	KindAuthorization
	// KindInfrastructure covers storage and downstream failures.
	KindInfrastructure
)

// Sentinel failure reasons surfaced by the subsystem.
var (
	// ErrMalformedAddress indicates the address is not 0x-prefixed 40-hex.
	ErrMalformedAddress = errors.New("malformed wallet address")
	// ErrMalformedPurpose indicates an unrecognized nonce purpose.
	ErrMalformedPurpose = errors.New("unrecognized nonce purpose")
	// ErrMalformedSignature indicates the signature is not 65 bytes of hex.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrInvalidSignature indicates recovery failed for the given signature.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrSignerMismatch indicates the recovered signer differs from the asserted address.
	ErrSignerMismatch = errors.New("signer does not match address")
	// ErrMalformedMessage indicates the signed message does not follow the template.
	ErrMalformedMessage = errors.New("malformed auth message")
	// ErrNonceNotFound indicates no matching nonce record exists.
	ErrNonceNotFound = errors.New("nonce not found")
	// ErrNonceAlreadyUsed indicates the nonce was consumed before.
	ErrNonceAlreadyUsed = errors.New("nonce already used")
	// ErrNonceExpired indicates the nonce validity window has passed.
	ErrNonceExpired = errors.New("nonce expired")
	// ErrTimestampOutOfRange indicates a legacy timestamp outside the accepted window.
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
	// ErrNotTokenHolder indicates the verified signer holds no gating NFT.
	ErrNotTokenHolder = errors.New("address does not hold the required token")
	// ErrLoginTokenInvalid indicates an exchange token that is unknown, used or expired.
	ErrLoginTokenInvalid = errors.New("invalid or expired login token")
	// ErrAccountInactive indicates the resolved account exists but may not sign in.
	ErrAccountInactive = errors.New("account is not active")
)

// Error couples a failure kind with its reason.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "wallet auth error"
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying reason for errors.Is checks.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatus maps the failure kind to a response status code.
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// validation wraps a reason as a validation failure.
func validation(err error) *Error { return &Error{Kind: KindValidation, Err: err} }

// authentication wraps a reason as an authentication failure.
func authentication(err error) *Error { return &Error{Kind: KindAuthentication, Err: err} }

// authorization wraps a reason as an authorization failure.
func authorization(err error) *Error { return &Error{Kind: KindAuthorization, Err: err} }

// infrastructure wraps a storage or downstream failure.
func infrastructure(op string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Err: fmt.Errorf("%s: %w", op, err)}
}

// AsError extracts an *Error from err, wrapping unknown errors as infrastructure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Kind: KindInfrastructure, Err: err}
}
