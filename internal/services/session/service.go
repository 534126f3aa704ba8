package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/storage"
)

// CookieName is the session cookie carrying the store lookup key
const CookieName = "sid"

// Account describes the authenticated account an identity upgrades to
type Account struct {
	ID          string
	DisplayName string
}

// Service reconciles session identities against the keyed store. It owns
// the SessionIdentity records; everything downstream sees only the
// derived identity key.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	ttl    time.Duration
	secure bool
}

// Config holds configuration for the session service
type Config struct {
	// TTL is the sliding session expiry, refreshed on every resolution
	TTL time.Duration
	// SecureCookies marks cookies Secure (set in production)
	SecureCookies bool
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL: 7 * 24 * time.Hour,
	}
}

// New creates a new session identity service
func New(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "session")),
		ttl:     cfg.TTL,
		secure:  cfg.SecureCookies,
	}
}

// Resolve looks up the identity for a session cookie value, minting a
// fresh guest identity when the cookie is absent, garbled, or unknown.
// The record's expiry slides forward on every resolution. A missing or
// bad cookie is never an error; only store I/O can fail.
func (s *Service) Resolve(ctx context.Context, cookieValue string) (*model.SessionIdentity, error) {
	now := s.clock.Now()

	if cookieValue != "" {
		identity, err := s.storage.GetSession(ctx, model.SessionKey(cookieValue))
		if err == nil {
			identity.UpdatedAt = now
			if err := s.storage.SaveSession(ctx, identity, s.ttl); err != nil {
				return nil, err
			}
			return identity, nil
		}
		if !errors.Is(err, model.ErrSessionNotFound) {
			return nil, err
		}
	}

	identity := &model.SessionIdentity{
		SessionKey: model.SessionKey(uuid.NewString()),
		GuestID:    uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.storage.SaveSession(ctx, identity, s.ttl); err != nil {
		return nil, err
	}

	s.logger.Debug("minted guest identity", slog.String("guest_id", identity.GuestID))
	return identity, nil
}

// RotateToAccount replaces the current identity with an account-bound one
// under a fresh session key. The guest id is carried forward as lineage.
// The new record is written before the old key is deleted so there is no
// window with zero valid sessions.
func (s *Service) RotateToAccount(ctx context.Context, current *model.SessionIdentity, account Account) (*model.SessionIdentity, error) {
	now := s.clock.Now()

	identity := &model.SessionIdentity{
		SessionKey:  model.SessionKey(uuid.NewString()),
		GuestID:     current.GuestID,
		AccountID:   account.ID,
		DisplayName: account.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SaveSession(ctx, identity, s.ttl); err != nil {
		return nil, err
	}
	if err := s.storage.DeleteSession(ctx, current.SessionKey); err != nil {
		// The new session is already valid; the orphaned old key will
		// age out with its TTL
		s.logger.Warn("failed to delete rotated session",
			slog.String("error", err.Error()))
	}

	s.logger.Info("identity upgraded to account", slog.String("account_id", account.ID))
	return identity, nil
}

// RotateToGuest discards the current identity and mints an entirely fresh
// guest one (new guest id too). Used for logout.
func (s *Service) RotateToGuest(ctx context.Context, current *model.SessionIdentity) (*model.SessionIdentity, error) {
	now := s.clock.Now()

	identity := &model.SessionIdentity{
		SessionKey: model.SessionKey(uuid.NewString()),
		GuestID:    uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.storage.SaveSession(ctx, identity, s.ttl); err != nil {
		return nil, err
	}
	if err := s.storage.DeleteSession(ctx, current.SessionKey); err != nil {
		s.logger.Warn("failed to delete rotated session",
			slog.String("error", err.Error()))
	}

	return identity, nil
}

// Cookie builds the session cookie for an identity: httponly,
// SameSite=Lax, root-scoped, Secure in production.
func (s *Service) Cookie(identity *model.SessionIdentity) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(identity.SessionKey),
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
