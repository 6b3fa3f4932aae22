// Package clientip extracts the real client IP address from HTTP requests.
//
// Proxy headers are consulted in priority order (CF-Connecting-IP,
// X-Forwarded-For, X-Real-IP) before falling back to RemoteAddr. Every
// candidate is validated and normalized with net/netip; invalid values and
// the unspecified address are skipped. The result feeds per-address rate
// limiting and security logging, so a stable, validated value matters more
// than recovering something from garbage headers.
package clientip
