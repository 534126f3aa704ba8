package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/duelboard/duelboard/internal/api/handler"
	"github.com/duelboard/duelboard/internal/api/middleware"
	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/security/csrf"
	"github.com/duelboard/duelboard/internal/services/magiclink"
	"github.com/duelboard/duelboard/internal/services/ratelimit"
	"github.com/duelboard/duelboard/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Sessions    *session.Service
	MagicLinks  *magiclink.Service
	RateLimiter *ratelimit.Limiter
	CsrfGuard   *csrf.Guard
	Clock       clock.Clock

	// Gateway serves the websocket endpoint; nil disables it
	Gateway http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.Sessions, cfg.MagicLinks, cfg.RateLimiter, cfg.CsrfGuard, cfg.Clock)

	// Create middleware
	sessionMiddleware := middleware.Session(cfg.Sessions)
	csrfMiddleware := middleware.Csrf(cfg.CsrfGuard)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no session resolution)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Auth routes; every request resolves an identity, minting a guest
	// when needed
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(sessionMiddleware)
	auth.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	auth.HandleFunc("/csrf", authHandler.Csrf).Methods(http.MethodGet)
	auth.HandleFunc("/magic-link/start", authHandler.MagicLinkStart).Methods(http.MethodPost)
	auth.HandleFunc("/magic-link/verify", authHandler.MagicLinkVerify).Methods(http.MethodPost)

	// Logout mutates auth state so it sits behind the csrf check
	logout := auth.PathPrefix("/logout").Subrouter()
	logout.Use(csrfMiddleware)
	logout.HandleFunc("", authHandler.Logout).Methods(http.MethodPost)

	// Websocket gateway, outside the API middleware chain: the gateway
	// resolves its own identity and the upgrade needs the raw connection
	if cfg.Gateway != nil {
		r.Handle("/ws", recoveryMiddleware(cfg.Gateway)).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
