// Package sessiontransport moves session tokens between the auth service
// and HTTP clients as cookies.
//
// The cookie value is the token codec's base64 serialization, delivered
// with Secure, HttpOnly, SameSite=Lax and a Max-Age matching the session
// lifetime. Cookie carries the token; RequireUser is middleware that
// resolves it to a username and stores the result in the request context,
// rejecting requests whose token fails validation.
package sessiontransport
