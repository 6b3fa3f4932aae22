package authn_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booleancoercion/andromeda/core/authn"
	"github.com/booleancoercion/andromeda/pkg/sessiontoken"
	"github.com/booleancoercion/andromeda/pkg/slidingwindow"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newService builds a service over a fresh memory store with limiters
// disabled; tests that exercise throttling supply their own.
func newService(t *testing.T, opts ...authn.Option) *authn.Service {
	t.Helper()

	base := []authn.Option{
		authn.WithUserLimiter(nil),
		authn.WithAddrLimiter(nil),
	}
	svc, err := authn.New(context.Background(), authn.NewMemoryStore(), append(base, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

	token, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := svc.SessionUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("duplicate username fails and keeps the original credential", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		require.NoError(t, svc.Register(ctx, "alice", "first password", ""))

		err := svc.Register(ctx, "alice", "second password", "")
		require.ErrorIs(t, err, authn.ErrDuplicateIdentity)

		// The stored credential must be untouched by the failed attempt.
		_, err = svc.Login(ctx, "alice", "first password", "203.0.113.7")
		assert.NoError(t, err)
		_, err = svc.Login(ctx, "alice", "second password", "203.0.113.7")
		assert.ErrorIs(t, err, authn.ErrInvalidCredentials)
	})

	t.Run("policy violations", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)

		tests := []struct {
			name     string
			username string
			password string
			want     error
		}{
			{"empty username", "", "valid password", authn.ErrUsernameInvalid},
			{"username too long", string(make([]byte, 41)), "valid password", authn.ErrUsernameInvalid},
			{"username with spaces", "ali ce", "valid password", authn.ErrUsernameInvalid},
			{"username with symbols", "alice!", "valid password", authn.ErrUsernameInvalid},
			{"password too short", "alice", "short", authn.ErrPasswordInvalid},
			{"password too long", "alice", string(make([]byte, 129)), authn.ErrPasswordInvalid},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, svc.Register(ctx, tt.username, tt.password, ""), tt.want)
			})
		}
	})

	t.Run("underscore and digits are allowed", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		assert.NoError(t, svc.Register(ctx, "alice_42", "valid password", ""))
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

		_, errWrong := svc.Login(ctx, "alice", "incorrect donkey staple", "203.0.113.7")
		_, errUnknown := svc.Login(ctx, "nobody", "incorrect donkey staple", "203.0.113.7")

		assert.ErrorIs(t, errWrong, authn.ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, authn.ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("issues distinct tokens per login", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

		first, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)
		second, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("throttles by address before touching credentials", func(t *testing.T) {
		t.Parallel()

		svc := newService(t,
			authn.WithAddrLimiter(slidingwindow.New(2, 15*time.Minute)))
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

		for range 2 {
			_, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
			require.NoError(t, err)
		}
		_, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		assert.ErrorIs(t, err, authn.ErrRateLimited)

		// A different source address is not affected.
		_, err = svc.Login(ctx, "alice", "correct horse battery", "198.51.100.1")
		assert.NoError(t, err)
	})

	t.Run("throttles by username across addresses", func(t *testing.T) {
		t.Parallel()

		svc := newService(t,
			authn.WithUserLimiter(slidingwindow.New(2, 30*time.Minute)))
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

		_, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.1")
		require.NoError(t, err)
		_, err = svc.Login(ctx, "alice", "correct horse battery", "203.0.113.2")
		require.NoError(t, err)
		_, err = svc.Login(ctx, "alice", "correct horse battery", "203.0.113.3")
		assert.ErrorIs(t, err, authn.ErrRateLimited)
	})
}

func TestSessionUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects malformed token", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		_, err := svc.SessionUser(ctx, "not a token")
		assert.ErrorIs(t, err, authn.ErrTokenMalformed)
	})

	t.Run("rejects tampered payload and tag", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))
		text, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		tok, err := sessiontoken.Parse(text)
		require.NoError(t, err)

		tampered := tok
		tampered.Payload[0] ^= 0x01
		_, err = svc.SessionUser(ctx, tampered.String())
		assert.ErrorIs(t, err, authn.ErrInvalidSignature)

		tampered = tok
		tampered.Tag[0] ^= 0x01
		_, err = svc.SessionUser(ctx, tampered.String())
		assert.ErrorIs(t, err, authn.ErrInvalidSignature)
	})

	t.Run("rejects well-signed token without a session", func(t *testing.T) {
		t.Parallel()

		// Two services sharing one store share MAC keys, so a token from
		// a session purged from the store verifies but must still fail.
		store := authn.NewMemoryStore()
		svc, err := authn.New(ctx, store,
			authn.WithUserLimiter(nil), authn.WithAddrLimiter(nil))
		require.NoError(t, err)

		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))
		text, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		_, err = store.DeleteExpiredSessions(ctx, time.Now().Add(100*365*24*time.Hour))
		require.NoError(t, err)

		_, err = svc.SessionUser(ctx, text)
		assert.ErrorIs(t, err, authn.ErrSessionExpired)
	})

	t.Run("expires after the session lifetime", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		svc := newService(t, authn.WithClock(clock.Now))

		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))
		token, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		username, err := svc.SessionUser(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "alice", username)

		clock.Advance(7*24*time.Hour + time.Second)
		_, err = svc.SessionUser(ctx, token)
		assert.ErrorIs(t, err, authn.ErrSessionExpired)
	})
}

func TestInvites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("registration requires an invite when invite-only", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, authn.WithInviteOnly(true))
		err := svc.Register(ctx, "alice", "correct horse battery", "")
		assert.ErrorIs(t, err, authn.ErrInviteRequired)
	})

	t.Run("issued invite admits exactly one registration", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, authn.WithInviteOnly(true))

		invite, err := svc.NewInvite(ctx)
		require.NoError(t, err)

		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", invite))

		err = svc.Register(ctx, "bob", "another password", invite)
		assert.ErrorIs(t, err, authn.ErrInviteUsed)
	})

	t.Run("failed registration keeps the invite spendable", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, authn.WithInviteOnly(true))

		first, err := svc.NewInvite(ctx)
		require.NoError(t, err)
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", first))

		second, err := svc.NewInvite(ctx)
		require.NoError(t, err)

		err = svc.Register(ctx, "alice", "another password", second)
		require.ErrorIs(t, err, authn.ErrDuplicateIdentity)

		// The duplicate attempt must not have consumed the invite.
		assert.NoError(t, svc.Register(ctx, "bob", "another password", second))
	})

	t.Run("rejects forged invite", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, authn.WithInviteOnly(true))

		var forged sessiontoken.Token
		forged.Payload[3] = 0x42
		err := svc.Register(ctx, "alice", "correct horse battery", forged.String())
		assert.ErrorIs(t, err, authn.ErrInvalidSignature)
	})

	t.Run("session token is not a valid invite", func(t *testing.T) {
		t.Parallel()

		// Session and invite tokens are signed with independent keys.
		svc := newService(t, authn.WithInviteOnly(true))

		invite, err := svc.NewInvite(ctx)
		require.NoError(t, err)
		require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", invite))

		session, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		err = svc.Register(ctx, "bob", "another password", session)
		assert.ErrorIs(t, err, authn.ErrInvalidSignature)
	})
}

func TestKeyBootstrap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("services sharing a store accept each other's tokens", func(t *testing.T) {
		t.Parallel()

		store := authn.NewMemoryStore()

		first, err := authn.New(ctx, store,
			authn.WithUserLimiter(nil), authn.WithAddrLimiter(nil))
		require.NoError(t, err)
		second, err := authn.New(ctx, store,
			authn.WithUserLimiter(nil), authn.WithAddrLimiter(nil))
		require.NoError(t, err)

		require.NoError(t, first.Register(ctx, "alice", "correct horse battery", ""))
		token, err := first.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
		require.NoError(t, err)

		username, err := second.SessionUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("put is insert-if-absent", func(t *testing.T) {
		t.Parallel()

		store := authn.NewMemoryStore()

		winner, err := store.PutMACKey(ctx, authn.KeyPurposeSession, make([]byte, 64))
		require.NoError(t, err)

		loser := make([]byte, 64)
		loser[0] = 0xff
		got, err := store.PutMACKey(ctx, authn.KeyPurposeSession, loser)
		require.NoError(t, err)
		assert.Equal(t, winner, got, "second writer must converge on the stored key")
	})
}

func TestPurgeExpiredSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := authn.NewMemoryStore()
	svc, err := authn.New(ctx, store,
		authn.WithClock(clock.Now),
		authn.WithUserLimiter(nil), authn.WithAddrLimiter(nil))
	require.NoError(t, err)

	require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))
	_, err = svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
	require.NoError(t, err)

	deleted, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "nothing expired yet")

	clock.Advance(7*24*time.Hour + time.Second)
	deleted, err = svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = svc.SessionUser(ctx, token)
	assert.ErrorIs(t, err, authn.ErrSessionExpired)
}

// failingStore wraps MemoryStore and fails a single operation.
type failingStore struct {
	*authn.MemoryStore
	failGetCredential bool
}

var errBroken = errors.New("connection refused")

func (f *failingStore) GetCredential(ctx context.Context, username string) ([]byte, []byte, error) {
	if f.failGetCredential {
		return nil, nil, errBroken
	}
	return f.MemoryStore.GetCredential(ctx, username)
}

func TestStoreFailureMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &failingStore{MemoryStore: authn.NewMemoryStore()}
	svc, err := authn.New(ctx, store,
		authn.WithUserLimiter(nil), authn.WithAddrLimiter(nil))
	require.NoError(t, err)

	require.NoError(t, svc.Register(ctx, "alice", "correct horse battery", ""))

	store.failGetCredential = true
	_, err = svc.Login(ctx, "alice", "correct horse battery", "203.0.113.7")
	assert.ErrorIs(t, err, authn.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, authn.ErrInvalidCredentials)
	assert.NotContains(t, err.Error(), "connection refused",
		"store detail must not leak through the service boundary")
}
