package magiclink

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/dependencies/random"
	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/storage"
)

// tokenBytes gives a 256-bit token rendered as 64 hex characters
const tokenBytes = 32

// emailPattern is a shallow shape check; deliverability is proven by the
// link round trip, not by parsing
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VerifiedUser is the account descriptor produced by a successful verify
type VerifiedUser struct {
	ID          string
	Email       string
	DisplayName string
}

// Service issues and verifies single-use, time-boxed login tokens.
// Only a hash of each token is stored; the raw value lives solely in the
// emailed URL.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	sender  EmailSender
	logger  *slog.Logger

	ttl    time.Duration
	appURL string
}

// Config holds configuration for the magic-link service
type Config struct {
	// TTL is the token validity window
	TTL time.Duration
	// AppURL is the base URL embedded in emailed links
	AppURL string
}

// DefaultConfig returns default magic-link configuration
func DefaultConfig() Config {
	return Config{
		TTL:    15 * time.Minute,
		AppURL: "http://localhost:5173",
	}
}

// New creates a new magic-link service
func New(store storage.Storage, clk clock.Clock, rnd random.Random, sender EmailSender, cfg Config, logger *slog.Logger) *Service {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.AppURL == "" {
		cfg.AppURL = DefaultConfig().AppURL
	}
	return &Service{
		storage: store,
		clock:   clk,
		random:  rnd,
		sender:  sender,
		logger:  logger.With(slog.String("component", "magiclink")),
		ttl:     cfg.TTL,
		appURL:  cfg.AppURL,
	}
}

// Start issues a token for the given email and sends the login link.
// The outcome is identical whether or not the email belongs to a known
// account; rate limiting happens upstream at the transport boundary.
func (s *Service) Start(ctx context.Context, email, requestedIP, userAgent string) error {
	normalized := NormalizeEmail(email)
	if !emailPattern.MatchString(normalized) {
		return model.ErrInvalidEmail
	}
	now := s.clock.Now()

	token := s.random.Hex(tokenBytes)

	record := &model.MagicLinkToken{
		TokenHash:   hashToken(token),
		Email:       normalized,
		ExpiresAt:   now.Add(s.ttl),
		RequestedIP: requestedIP,
		UserAgent:   userAgent,
		CreatedAt:   now,
	}

	if err := s.storage.SaveMagicLinkToken(ctx, record); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/?token=%s", s.appURL, url.QueryEscape(token))
	return s.sender.SendMagicLink(ctx, normalized, link)
}

// Verify consumes a token. Failure precedence: unknown tokens are
// invalid; known-but-used tokens report used even when also expired;
// expired unused tokens report expired. Success marks the token used so
// any later verify fails.
func (s *Service) Verify(ctx context.Context, token string) (*VerifiedUser, error) {
	record, err := s.storage.GetMagicLinkToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}

	if record.Used() {
		return nil, model.ErrTokenUsed
	}

	now := s.clock.Now()
	if record.ExpiresAt.Before(now) {
		return nil, model.ErrTokenExpired
	}

	record.UsedAt = &now
	if err := s.storage.SaveMagicLinkToken(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("magic link verified", slog.String("email", record.Email))

	return &VerifiedUser{
		ID:          uuid.NewString(),
		Email:       record.Email,
		DisplayName: displayNameFor(record.Email),
	}, nil
}

// NormalizeEmail trims whitespace and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// displayNameFor defaults the display name to the email's local part
func displayNameFor(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Player"
	}
	return local
}

// hashToken derives the store key; raw tokens are never persisted
func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
