package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/duelboard/duelboard/internal/api/middleware"
	"github.com/duelboard/duelboard/internal/api/request"
	"github.com/duelboard/duelboard/internal/api/response"
	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/security/csrf"
	"github.com/duelboard/duelboard/internal/services/magiclink"
	"github.com/duelboard/duelboard/internal/services/ratelimit"
	"github.com/duelboard/duelboard/internal/services/session"
)

// AuthHandler handles identity and login endpoints
type AuthHandler struct {
	sessions   *session.Service
	magicLinks *magiclink.Service
	limiter    *ratelimit.Limiter
	guard      *csrf.Guard
	clock      clock.Clock
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	sessions *session.Service,
	magicLinks *magiclink.Service,
	limiter *ratelimit.Limiter,
	guard *csrf.Guard,
	clk clock.Clock,
) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		magicLinks: magicLinks,
		limiter:    limiter,
		guard:      guard,
		clock:      clk,
	}
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// Csrf handles GET /api/v1/auth/csrf
func (h *AuthHandler) Csrf(w http.ResponseWriter, r *http.Request) {
	token, cookie := h.guard.Issue()
	http.SetCookie(w, cookie)
	response.JSON(w, http.StatusOK, response.CSRFToken{Token: token})
}

// MagicLinkStart handles POST /api/v1/auth/magic-link/start
func (h *AuthHandler) MagicLinkStart(w http.ResponseWriter, r *http.Request) {
	var req request.StartMagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}

	// Limit by requester and address together so one address cannot
	// starve other addresses requesting links for the same email
	limitKey := clientIP(r) + ":" + magiclink.NormalizeEmail(req.Email)
	if !h.limiter.Allow(limitKey, h.clock.Now()) {
		WriteError(w, model.ErrRateLimited)
		return
	}

	if err := h.magicLinks.Start(r.Context(), req.Email, clientIP(r), r.UserAgent()); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Status{Status: "sent"})
}

// MagicLinkVerify handles POST /api/v1/auth/magic-link/verify
func (h *AuthHandler) MagicLinkVerify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyMagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Token == "" {
		WriteError(w, NewInvalidRequestError("token is required"))
		return
	}

	user, err := h.magicLinks.Verify(r.Context(), req.Token)
	if err != nil {
		WriteError(w, err)
		return
	}

	current := middleware.MustGetIdentity(r.Context())
	identity, err := h.sessions.RotateToAccount(r.Context(), current, session.Account{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(identity))
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	current := middleware.MustGetIdentity(r.Context())

	identity, err := h.sessions.RotateToGuest(r.Context(), current)
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(identity))
	response.JSON(w, http.StatusOK, response.Status{Status: "ok"})
}

// clientIP picks the originating address: the first X-Forwarded-For hop
// when present, the peer address otherwise
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
