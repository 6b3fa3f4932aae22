package authn

import (
	"context"
	"time"
)

// MAC key purposes. Each purpose names an independent singleton key.
const (
	KeyPurposeSession  = "session"
	KeyPurposeRegister = "register"
)

// Store is the persistence boundary the service depends on.
// Implementations must be safe for concurrent use and must return
// ErrNotFound (possibly wrapped) for absent records.
type Store interface {
	// GetMACKey returns the persisted MAC key for purpose.
	GetMACKey(ctx context.Context, purpose string) ([]byte, error)
	// PutMACKey inserts key for purpose if no key is stored yet and
	// returns the persisted winner. Under a concurrent bootstrap the
	// caller must use the returned key, not the one it generated.
	PutMACKey(ctx context.Context, purpose string, key []byte) ([]byte, error)

	// CreateCredential stores a new credential record. Returns
	// ErrDuplicateIdentity if the username exists; never overwrites.
	CreateCredential(ctx context.Context, username string, hash, salt []byte) error
	// CreateCredentialWithInvite stores a new credential and consumes the
	// invite payload in one atomic step. Returns ErrDuplicateIdentity if
	// the username exists and ErrNotFound if the invite is spent or was
	// never issued; on any failure neither record changes, so a failed
	// registration leaves its invite spendable.
	CreateCredentialWithInvite(ctx context.Context, username string, hash, salt, invite []byte) error
	// GetCredential returns the stored verifier and salt for username.
	GetCredential(ctx context.Context, username string) (hash, salt []byte, err error)

	// PutSession records a session payload for username with its expiry.
	PutSession(ctx context.Context, username string, payload []byte, expiresAt time.Time) error
	// GetSessionOwner returns the username owning payload, treating
	// sessions with expiresAt <= now as absent.
	GetSessionOwner(ctx context.Context, payload []byte, now time.Time) (string, error)
	// DeleteExpiredSessions removes sessions expired as of now and
	// returns how many were deleted.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// StoreInvite records an issued invite token payload.
	StoreInvite(ctx context.Context, payload []byte) error
	// RedeemInvite atomically consumes an invite payload. Returns
	// ErrNotFound once the invite is spent or was never issued, so
	// concurrent redemptions cannot double-spend.
	RedeemInvite(ctx context.Context, payload []byte) error
}
