package authn

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/booleancoercion/andromeda/core/logger"
	"github.com/booleancoercion/andromeda/pkg/hmacsign"
	"github.com/booleancoercion/andromeda/pkg/passhash"
	"github.com/booleancoercion/andromeda/pkg/sessiontoken"
	"github.com/booleancoercion/andromeda/pkg/slidingwindow"
)

// Service orchestrates registration, login and session validation.
// All methods are safe for concurrent use.
type Service struct {
	store Store

	sessionSigner  *hmacsign.Signer
	registerSigner *hmacsign.Signer

	sessionTTL  time.Duration
	inviteOnly  bool
	userLimiter *slidingwindow.Limiter
	addrLimiter *slidingwindow.Limiter

	// decoy credential: verified for unknown usernames so lookups that
	// miss burn the same KDF cost as a wrong password.
	decoySalt []byte
	decoyHash []byte

	log *slog.Logger
	now func() time.Time
}

// New constructs a Service over store, bootstrapping both MAC keys.
func New(ctx context.Context, store Store, opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	sessionKey, err := bootstrapKey(ctx, store, KeyPurposeSession)
	if err != nil {
		return nil, err
	}
	registerKey, err := bootstrapKey(ctx, store, KeyPurposeRegister)
	if err != nil {
		return nil, err
	}

	sessionSigner, err := hmacsign.New(sessionKey)
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}
	registerSigner, err := hmacsign.New(registerKey)
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}

	decoySalt, err := passhash.NewSalt()
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}
	decoyPassword := make([]byte, 16)
	if _, err := rand.Read(decoyPassword); err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}

	return &Service{
		store:          store,
		sessionSigner:  sessionSigner,
		registerSigner: registerSigner,
		sessionTTL:     cfg.SessionTTL,
		inviteOnly:     cfg.InviteOnly,
		userLimiter:    cfg.UserLimiter,
		addrLimiter:    cfg.AddrLimiter,
		decoySalt:      decoySalt,
		decoyHash:      passhash.Hash(string(decoyPassword), decoySalt),
		log:            cfg.Logger,
		now:            cfg.now,
	}, nil
}

// bootstrapKey loads the MAC key for purpose, generating and persisting
// one on first boot. PutMACKey has insert-if-absent semantics and returns
// the persisted winner, so a lost bootstrap race still converges on the
// key every other process instance uses.
func bootstrapKey(ctx context.Context, store Store, purpose string) ([]byte, error) {
	key, err := store.GetMACKey(ctx, purpose)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	fresh, err := hmacsign.GenerateKey()
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}

	winner, err := store.PutMACKey(ctx, purpose, fresh)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return winner, nil
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// InviteOnly reports whether registration requires an invite token.
func (s *Service) InviteOnly() bool {
	return s.inviteOnly
}

// Register creates a credential record for username. When the service is
// invite-only, invite must carry a valid, unredeemed invite token; it is
// consumed atomically so concurrent registrations cannot share one.
func (s *Service) Register(ctx context.Context, username, password, invite string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	salt, err := passhash.NewSalt()
	if err != nil {
		return s.cryptoFailure(ctx, "generate salt", err)
	}
	hash := passhash.Hash(password, salt)

	if s.inviteOnly {
		if invite == "" {
			return ErrInviteRequired
		}
		tok, err := sessiontoken.Parse(invite)
		if err != nil {
			return ErrTokenMalformed
		}
		if !s.registerSigner.Verify(tok.Payload[:], tok.Tag[:]) {
			return ErrInvalidSignature
		}
		// Credential creation and invite consumption happen in one store
		// operation, so a registration that fails (duplicate username,
		// store error) leaves the invite spendable.
		err = s.store.CreateCredentialWithInvite(ctx, username, hash, salt, tok.Payload[:])
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrInviteUsed
		case errors.Is(err, ErrDuplicateIdentity):
			return ErrDuplicateIdentity
		case err != nil:
			return s.storeFailure(ctx, "create credential with invite", err)
		}
	} else if err := s.store.CreateCredential(ctx, username, hash, salt); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return ErrDuplicateIdentity
		}
		return s.storeFailure(ctx, "create credential", err)
	}

	s.log.InfoContext(ctx, "user registered",
		logger.Component("authn"),
		logger.UserName(username))
	return nil
}

// Login verifies the credentials and, on success, issues a signed session
// token serialized for cookie transport. Unknown usernames and wrong
// passwords yield the same ErrInvalidCredentials with comparable timing.
func (s *Service) Login(ctx context.Context, username, password, addr string) (string, error) {
	if s.addrLimiter != nil && !s.addrLimiter.Attempt(addr) {
		s.log.WarnContext(ctx, "login throttled by address",
			logger.Component("authn"),
			logger.ClientIP(addr))
		return "", ErrRateLimited
	}
	if s.userLimiter != nil && !s.userLimiter.Attempt(username) {
		s.log.WarnContext(ctx, "login throttled by username",
			logger.Component("authn"),
			logger.UserName(username))
		return "", ErrRateLimited
	}

	hash, salt, err := s.store.GetCredential(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		passhash.Verify(password, s.decoySalt, s.decoyHash)
		return "", ErrInvalidCredentials
	case err != nil:
		return "", s.storeFailure(ctx, "get credential", err)
	}

	if !passhash.Verify(password, salt, hash) {
		return "", ErrInvalidCredentials
	}

	var tok sessiontoken.Token
	if _, err := rand.Read(tok.Payload[:]); err != nil {
		return "", s.cryptoFailure(ctx, "generate session payload", err)
	}
	tok.Tag = s.sessionSigner.Sign(tok.Payload[:])

	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.store.PutSession(ctx, username, tok.Payload[:], expiresAt); err != nil {
		return "", s.storeFailure(ctx, "store session", err)
	}

	s.log.InfoContext(ctx, "user logged in",
		logger.Component("authn"),
		logger.UserName(username))
	return tok.String(), nil
}

// SessionUser resolves a session token to its owning username. It fails
// closed at every step: malformed input, a bad signature and an absent or
// expired session each reject the token.
func (s *Service) SessionUser(ctx context.Context, text string) (string, error) {
	tok, err := sessiontoken.Parse(text)
	if err != nil {
		return "", ErrTokenMalformed
	}

	if !s.sessionSigner.Verify(tok.Payload[:], tok.Tag[:]) {
		return "", ErrInvalidSignature
	}

	username, err := s.store.GetSessionOwner(ctx, tok.Payload[:], s.now())
	switch {
	case errors.Is(err, ErrNotFound):
		return "", ErrSessionExpired
	case err != nil:
		return "", s.storeFailure(ctx, "get session owner", err)
	}
	return username, nil
}

// NewInvite issues a single-use registration token signed with the
// register key. The payload is recorded so redemption can be atomic.
func (s *Service) NewInvite(ctx context.Context) (string, error) {
	var tok sessiontoken.Token
	if _, err := rand.Read(tok.Payload[:]); err != nil {
		return "", s.cryptoFailure(ctx, "generate invite payload", err)
	}
	tok.Tag = s.registerSigner.Sign(tok.Payload[:])

	if err := s.store.StoreInvite(ctx, tok.Payload[:]); err != nil {
		return "", s.storeFailure(ctx, "store invite", err)
	}

	s.log.InfoContext(ctx, "invite issued", logger.Component("authn"))
	return tok.String(), nil
}

// PurgeExpiredSessions removes sessions whose expiry has passed. Intended
// to run periodically so the session table does not grow without bound.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, s.storeFailure(ctx, "purge sessions", err)
	}
	if deleted > 0 {
		s.log.InfoContext(ctx, "expired sessions purged",
			logger.Component("authn"),
			logger.Count("deleted", deleted))
	}
	return deleted, nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "store operation failed",
		logger.Component("authn"),
		slog.String("op", op),
		logger.Error(err))
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
}

func (s *Service) cryptoFailure(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "crypto operation failed",
		logger.Component("authn"),
		slog.String("op", op),
		logger.Error(err))
	return fmt.Errorf("%w: %s", ErrCryptoFailure, op)
}
