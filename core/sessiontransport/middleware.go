package sessiontransport

import (
	"context"
	"net/http"
)

type usernameKey struct{}

// WithUser returns a context carrying the authenticated username.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// UserFromContext extracts the username stored by RequireUser.
func UserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey{}).(string)
	return username, ok
}

// RequireUser rejects requests without a valid session and exposes the
// session's username to downstream handlers via the request context.
// Every rejection is presented identically to the client.
func (c *Cookie) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := c.User(r)
		if err != nil {
			c.Clear(w)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), username)))
	})
}
