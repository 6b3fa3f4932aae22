package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// headerPriority lists proxy headers from most to least trustworthy.
var headerPriority = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the client IP for r, or "" when no valid address can be
// determined.
func GetIP(r *http.Request) string {
	for _, header := range headerPriority {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		// X-Forwarded-For may hold "client, proxy1, proxy2"; the leftmost
		// entry is the original client.
		if header == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
		}

		if ip, ok := normalize(value); ok {
			return ip
		}
	}

	return RemoteIP(r)
}

// RemoteIP returns the address of the directly connected peer, ignoring
// proxy headers entirely. Use it wherever the identity must not be
// client-controlled, such as keying a rate limiter.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := normalize(host); ok {
		return ip
	}
	return ""
}

// normalize validates and canonicalizes a candidate address.
func normalize(value string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(value))
	if err != nil || addr.IsUnspecified() {
		return "", false
	}
	return addr.String(), true
}
