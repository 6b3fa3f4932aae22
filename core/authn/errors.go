package authn

import "errors"

var (
	// ErrUsernameInvalid is returned when a username fails the character or
	// length policy.
	ErrUsernameInvalid = errors.New("username must be 1-40 characters: letters, digits or underscore")
	// ErrPasswordInvalid is returned when a password fails the length policy.
	ErrPasswordInvalid = errors.New("password must be 8-128 characters")
	// ErrDuplicateIdentity is returned when registering a username that is
	// already taken. The stored credential is never overwritten.
	ErrDuplicateIdentity = errors.New("username is already taken")
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; the two cases must stay externally indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenMalformed is returned for token text that does not decode to
	// a well-formed token.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrInvalidSignature is returned when a token's tag does not verify
	// under the corresponding MAC key.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrSessionExpired is returned when a well-signed session token has no
	// live session behind it.
	ErrSessionExpired = errors.New("session is expired or unknown")
	// ErrInviteRequired is returned when registration needs an invite token
	// and none was supplied.
	ErrInviteRequired = errors.New("registration requires an invite token")
	// ErrInviteUsed is returned when an invite token was already redeemed
	// or never issued.
	ErrInviteUsed = errors.New("invite token has already been used")
	// ErrRateLimited is returned when a login attempt is throttled.
	ErrRateLimited = errors.New("too many attempts, try again later")

	// ErrNotFound is the store-level absence sentinel. Store
	// implementations return it; the Service never lets it escape.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps persistence failures. Surfaced to clients
	// as a generic server error, logged with detail.
	ErrStoreUnavailable = errors.New("storage is unavailable")
	// ErrCryptoFailure wraps failures of the crypto primitives themselves,
	// such as a broken entropy source. Fatal, never a bad-input condition.
	ErrCryptoFailure = errors.New("crypto subsystem failure")
)
