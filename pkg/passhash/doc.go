// Package passhash derives fixed-length password verifiers with
// PBKDF2-HMAC-SHA512 and compares them in constant time.
//
// The construction is deliberately expensive (210,000 iterations) so that
// offline brute force against leaked verifiers stays costly. Hashing is
// deterministic for a given password and salt; Verify recomputes the digest
// and compares with crypto/subtle, never branching on byte position.
//
// Usage:
//
//	salt, err := passhash.NewSalt()
//	if err != nil {
//		return err
//	}
//	digest := passhash.Hash(password, salt)
//	// store digest and salt
//
//	if !passhash.Verify(password, salt, digest) {
//		// wrong password
//	}
package passhash
