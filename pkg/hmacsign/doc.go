// Package hmacsign wraps HMAC-SHA256 for signing and verifying opaque byte
// strings under a fixed 64-byte key.
//
// A failed Verify is an expected outcome (the tag simply does not
// authenticate the message), not an error: callers that need to distinguish
// "cryptographically invalid" from "operation failed" get exactly that from
// the bool return. Comparison uses hmac.Equal and is constant time.
package hmacsign
