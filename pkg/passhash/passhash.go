package passhash

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the length of a password salt in bytes.
	SaltLength = 16
	// HashLength is the length of a derived verifier in bytes.
	HashLength = 16
	// Iterations is the PBKDF2 iteration count.
	Iterations = 210_000
)

// Hash derives the verifier for password under salt. The output is
// deterministic: identical inputs always produce identical digests.
func Hash(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, HashLength, sha512.New)
}

// Verify recomputes the verifier and compares it to expected in constant
// time. x/crypto/pbkdf2 offers no native verify primitive, so recompute
// plus subtle.ConstantTimeCompare carries the same guarantees.
func Verify(password string, salt, expected []byte) bool {
	digest := Hash(password, salt)
	return subtle.ConstantTimeCompare(digest, expected) == 1
}

// NewSalt returns a fresh random salt. An error here indicates a broken
// entropy source and must be treated as fatal by the caller, not as a
// bad-input condition.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
