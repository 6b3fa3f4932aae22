package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/booleancoercion/andromeda/core/authn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// Store implements authn.Store on a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle. The caller owns the handle's
// lifecycle; run Migrate before first use.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return db, nil
}

func (s *Store) GetMACKey(ctx context.Context, purpose string) ([]byte, error) {
	var key []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT key FROM mac_keys WHERE purpose = $1`, purpose).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authn.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get mac key: %w", err)
	}
	return key, nil
}

func (s *Store) PutMACKey(ctx context.Context, purpose string, key []byte) ([]byte, error) {
	// Insert-if-absent, then read back whichever key actually landed.
	// A concurrent bootstrap that wins the insert is the winner for
	// every process instance.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mac_keys (purpose, key) VALUES ($1, $2)
		 ON CONFLICT (purpose) DO NOTHING`, purpose, key)
	if err != nil {
		return nil, fmt.Errorf("pg: put mac key: %w", err)
	}
	return s.GetMACKey(ctx, purpose)
}

func (s *Store) CreateCredential(ctx context.Context, username string, hash, salt []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, username, password_hash, password_salt)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), username, hash, salt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authn.ErrDuplicateIdentity
		}
		return fmt.Errorf("pg: create credential: %w", err)
	}
	return nil
}

func (s *Store) CreateCredentialWithInvite(ctx context.Context, username string, hash, salt, invite []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pg: create credential with invite: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO credentials (id, username, password_hash, password_salt)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), username, hash, salt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authn.ErrDuplicateIdentity
		}
		return fmt.Errorf("pg: create credential with invite: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM invites WHERE payload = $1`, invite)
	if err != nil {
		return fmt.Errorf("pg: create credential with invite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pg: create credential with invite: %w", err)
	}
	if affected == 0 {
		// Rolls back, so the credential insert is discarded too.
		return authn.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pg: create credential with invite: %w", err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, username string) ([]byte, []byte, error) {
	var hash, salt []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, password_salt FROM credentials WHERE username = $1`,
		username).Scan(&hash, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, authn.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("pg: get credential: %w", err)
	}
	return hash, salt, nil
}

func (s *Store) PutSession(ctx context.Context, username string, payload []byte, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (payload, username, expires_at) VALUES ($1, $2, $3)`,
		payload, username, expiresAt)
	if err != nil {
		return fmt.Errorf("pg: put session: %w", err)
	}
	return nil
}

func (s *Store) GetSessionOwner(ctx context.Context, payload []byte, now time.Time) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx,
		`SELECT username FROM sessions WHERE payload = $1 AND expires_at > $2`,
		payload, now).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", authn.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pg: get session owner: %w", err)
	}
	return username, nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pg: delete expired sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pg: delete expired sessions: %w", err)
	}
	return deleted, nil
}

func (s *Store) StoreInvite(ctx context.Context, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (payload) VALUES ($1)`, payload)
	if err != nil {
		return fmt.Errorf("pg: store invite: %w", err)
	}
	return nil
}

func (s *Store) RedeemInvite(ctx context.Context, payload []byte) error {
	// A single DELETE is atomic: exactly one concurrent redeemer observes
	// an affected row.
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invites WHERE payload = $1`, payload)
	if err != nil {
		return fmt.Errorf("pg: redeem invite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pg: redeem invite: %w", err)
	}
	if affected == 0 {
		return authn.ErrNotFound
	}
	return nil
}
