package sessiontransport

import (
	"net/http"
	"time"

	"github.com/booleancoercion/andromeda/core/authn"
)

// DefaultCookieName matches the original deployment's session cookie.
const DefaultCookieName = "id"

// Cookie transports session tokens in an HTTP cookie.
type Cookie struct {
	svc  *authn.Service
	name string
}

// NewCookie creates a cookie transport bound to svc. An empty name selects
// DefaultCookieName.
func NewCookie(svc *authn.Service, name string) *Cookie {
	if name == "" {
		name = DefaultCookieName
	}
	return &Cookie{svc: svc, name: name}
}

// Set writes token as the session cookie. Max-Age mirrors the service's
// session lifetime so the browser forgets the cookie when the server-side
// session dies.
func (c *Cookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.svc.SessionTTL() / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie immediately.
func (c *Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token extracts the raw session token from r, if any.
func (c *Cookie) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// User resolves the request's session cookie to a username. Returns
// authn.ErrSessionExpired when no cookie is present so callers handle
// "no session" and "dead session" the same way.
func (c *Cookie) User(r *http.Request) (string, error) {
	token, ok := c.Token(r)
	if !ok {
		return "", authn.ErrSessionExpired
	}
	return c.svc.SessionUser(r.Context(), token)
}
