package authn

import (
	"context"
	"sync"
	"time"
)

type credential struct {
	hash []byte
	salt []byte
}

type sessionRecord struct {
	username  string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation guarded by a single
// mutex. State is process-local and lost on restart; it backs tests and
// single-node deployments that do not need durable accounts.
type MemoryStore struct {
	mu          sync.Mutex
	keys        map[string][]byte
	credentials map[string]credential
	sessions    map[string]sessionRecord
	invites     map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:        make(map[string][]byte),
		credentials: make(map[string]credential),
		sessions:    make(map[string]sessionRecord),
		invites:     make(map[string]struct{}),
	}
}

func (m *MemoryStore) GetMACKey(ctx context.Context, purpose string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[purpose]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(key), nil
}

func (m *MemoryStore) PutMACKey(ctx context.Context, purpose string, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Insert-if-absent: a concurrent bootstrap that got here first wins.
	if existing, ok := m.keys[purpose]; ok {
		return cloneBytes(existing), nil
	}
	m.keys[purpose] = cloneBytes(key)
	return cloneBytes(key), nil
}

func (m *MemoryStore) CreateCredential(ctx context.Context, username string, hash, salt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.credentials[username]; ok {
		return ErrDuplicateIdentity
	}
	m.credentials[username] = credential{hash: cloneBytes(hash), salt: cloneBytes(salt)}
	return nil
}

func (m *MemoryStore) CreateCredentialWithInvite(ctx context.Context, username string, hash, salt, invite []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Both checks precede both writes so a failure mutates nothing.
	if _, ok := m.credentials[username]; ok {
		return ErrDuplicateIdentity
	}
	if _, ok := m.invites[string(invite)]; !ok {
		return ErrNotFound
	}

	m.credentials[username] = credential{hash: cloneBytes(hash), salt: cloneBytes(salt)}
	delete(m.invites, string(invite))
	return nil
}

func (m *MemoryStore) GetCredential(ctx context.Context, username string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.credentials[username]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return cloneBytes(cred.hash), cloneBytes(cred.salt), nil
}

func (m *MemoryStore) PutSession(ctx context.Context, username string, payload []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[string(payload)] = sessionRecord{username: username, expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) GetSessionOwner(ctx context.Context, payload []byte, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[string(payload)]
	if !ok || !rec.expiresAt.After(now) {
		return "", ErrNotFound
	}
	return rec.username, nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for payload, rec := range m.sessions {
		if !rec.expiresAt.After(now) {
			delete(m.sessions, payload)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) StoreInvite(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invites[string(payload)] = struct{}{}
	return nil
}

func (m *MemoryStore) RedeemInvite(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invites[string(payload)]; !ok {
		return ErrNotFound
	}
	delete(m.invites, string(payload))
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
