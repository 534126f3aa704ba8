package csrf

import (
	"crypto/subtle"
	"net/http"

	"github.com/duelboard/duelboard/internal/dependencies/random"
	"github.com/duelboard/duelboard/internal/model"
)

// CookieName is the double-submit cookie name
const CookieName = "csrf_token"

// HeaderName is the request header the client echoes the token in
const HeaderName = "X-CSRF-Token"

// tokenBytes gives a 192-bit token rendered as 48 hex characters
const tokenBytes = 24

// Guard implements double-submit CSRF protection: the server issues a
// token as both a cookie and a response value, and mutating requests
// must echo it back in a header matching the cookie.
type Guard struct {
	random random.Random
	secure bool
}

// Config holds configuration for the CSRF guard
type Config struct {
	// SecureCookies marks the token cookie Secure (set in production)
	SecureCookies bool
}

// New creates a new CSRF guard
func New(rnd random.Random, cfg Config) *Guard {
	return &Guard{
		random: rnd,
		secure: cfg.SecureCookies,
	}
}

// Issue generates a fresh token and the cookie carrying it. The same
// value is returned to the caller for use in the request header.
func (g *Guard) Issue() (string, *http.Cookie) {
	token := g.random.Hex(tokenBytes)
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   3600,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
	return token, cookie
}

// Require checks the double-submit pair. Both values must be present and
// equal; comparison is constant-time.
func (g *Guard) Require(headerToken, cookieToken string) error {
	if headerToken == "" || cookieToken == "" {
		return model.ErrCSRFInvalid
	}
	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) != 1 {
		return model.ErrCSRFInvalid
	}
	return nil
}
