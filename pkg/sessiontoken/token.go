package sessiontoken

import (
	"encoding/base64"
	"errors"
)

const (
	// PayloadLength is the length of the random token payload in bytes.
	PayloadLength = 32
	// TagLength is the length of the MAC tag in bytes.
	TagLength = 32

	rawLength = PayloadLength + TagLength
	// encodedLength is the canonical base64 size of a serialized token.
	encodedLength = (rawLength + 2) / 3 * 4
	// maxInputLength leaves a small margin over the canonical size so that
	// near-miss inputs still reach the exact-length check instead of being
	// cut off by the guard.
	maxInputLength = encodedLength + 4
)

// ErrMalformed is returned by Parse for any input that is not the canonical
// encoding of a token.
var ErrMalformed = errors.New("sessiontoken: malformed token")

// Token is an opaque bearer token: a random payload plus the tag
// authenticating it. The payload is the durable identifier; the tag lets
// garbage be rejected without a store lookup.
type Token struct {
	Payload [PayloadLength]byte
	Tag     [TagLength]byte
}

// Parse decodes text into a Token. It fails closed: oversized input,
// invalid base64 and wrong decoded lengths all yield ErrMalformed.
func Parse(text string) (Token, error) {
	if len(text) > maxInputLength {
		return Token{}, ErrMalformed
	}

	raw, err := base64.StdEncoding.Strict().DecodeString(text)
	if err != nil || len(raw) != rawLength {
		return Token{}, ErrMalformed
	}

	var t Token
	copy(t.Payload[:], raw[:PayloadLength])
	copy(t.Tag[:], raw[PayloadLength:])
	return t, nil
}

// String returns the canonical serialization: base64(payload || tag).
func (t Token) String() string {
	raw := make([]byte, 0, rawLength)
	raw = append(raw, t.Payload[:]...)
	raw = append(raw, t.Tag[:]...)
	return base64.StdEncoding.EncodeToString(raw)
}
