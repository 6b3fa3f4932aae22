// Package sessiontoken defines the wire form of session and invite tokens:
// a 32-byte random payload concatenated with its 32-byte MAC tag, encoded
// as standard padded base64.
//
// Parse is strict: it rejects non-canonical base64 and any input whose
// decoded length is not exactly PayloadLength+TagLength, and it bounds the
// accepted input size before decoding so client-supplied strings cannot
// drive allocation. Parse(t.String()) == t for every token.
package sessiontoken
