// Package authn implements password registration, login and session
// validation over a narrow storage interface.
//
// A Service composes four pieces: a slow salted KDF for password
// verifiers (pkg/passhash), an HMAC signer for opaque session and invite
// tokens (pkg/hmacsign, pkg/sessiontoken), sliding-window rate limiters
// for login attempts (pkg/slidingwindow), and a Store that persists MAC
// keys, credentials, sessions and invites.
//
// The service owns two independent 64-byte MAC keys, one for session
// tokens and one for invite tokens. Both are bootstrapped on construction:
// loaded from the store if present, otherwise generated and inserted with
// insert-if-absent semantics so concurrent first boots converge on a
// single persisted key.
//
// Every failure mode is converted to one of the package's sentinel errors
// before it crosses the Service boundary. The authentication rejections
// (ErrInvalidCredentials, ErrInvalidSignature, ErrSessionExpired) are
// distinguished internally for logging but must be presented identically
// to end users.
//
//	store := authn.NewMemoryStore()
//	svc, err := authn.New(ctx, store)
//	if err != nil {
//		return err
//	}
//
//	if err := svc.Register(ctx, "alice", "correct horse battery", ""); err != nil {
//		return err
//	}
//	token, err := svc.Login(ctx, "alice", "correct horse battery", clientAddr)
//	if err != nil {
//		return err
//	}
//	username, err := svc.SessionUser(ctx, token)
package authn
