package hmacsign

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	// KeyLength is the required MAC key length in bytes.
	KeyLength = 64
	// TagLength is the length of a produced tag in bytes.
	TagLength = sha256.Size
)

// ErrKeyLength is returned when constructing a Signer with a key of the
// wrong size.
var ErrKeyLength = errors.New("hmacsign: key must be exactly 64 bytes")

// Signer computes and checks HMAC-SHA256 tags under a single key.
// It is safe for concurrent use; the key is never mutated after construction.
type Signer struct {
	key []byte
}

// New creates a Signer from key. The key is copied, so the caller may zero
// its own buffer afterwards.
func New(key []byte) (*Signer, error) {
	if len(key) != KeyLength {
		return nil, ErrKeyLength
	}
	s := &Signer{key: make([]byte, KeyLength)}
	copy(s.key, key)
	return s, nil
}

// Sign returns the tag authenticating message under the signer's key.
func (s *Signer) Sign(message []byte) [TagLength]byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(message) // hash.Hash.Write never returns an error
	var tag [TagLength]byte
	mac.Sum(tag[:0])
	return tag
}

// Verify reports whether tag authenticates message. False means the
// signature is invalid; there is no operational failure mode.
func (s *Signer) Verify(message, tag []byte) bool {
	expected := s.Sign(message)
	return hmac.Equal(expected[:], tag)
}

// GenerateKey returns a fresh random MAC key of KeyLength bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
