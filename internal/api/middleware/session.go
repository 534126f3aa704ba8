package middleware

import (
	"context"
	"net/http"

	"github.com/duelboard/duelboard/internal/api/apierr"
	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/security/csrf"
	"github.com/duelboard/duelboard/internal/services/session"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Session creates middleware that resolves the session identity for every
// request, refreshing the cookie as it goes. There is no rejection path:
// an unknown or missing cookie resolves to a fresh guest.
func Session(sessions *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieValue string
			if cookie, err := r.Cookie(session.CookieName); err == nil {
				cookieValue = cookie.Value
			}

			identity, err := sessions.Resolve(r.Context(), cookieValue)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			http.SetCookie(w, sessions.Cookie(identity))

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Csrf creates middleware enforcing the double-submit token pair on
// mutating endpoints
func Csrf(guard *csrf.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if cookie, err := r.Cookie(csrf.CookieName); err == nil {
				cookieToken = cookie.Value
			}

			if err := guard.Require(r.Header.Get(csrf.HeaderName), cookieToken); err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity returns the resolved identity from the request context
func GetIdentity(ctx context.Context) *model.SessionIdentity {
	identity, _ := ctx.Value(identityContextKey).(*model.SessionIdentity)
	return identity
}

// MustGetIdentity returns the resolved identity or panics
func MustGetIdentity(ctx context.Context) *model.SessionIdentity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - session middleware not applied?")
	}
	return identity
}
