package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/duelboard/duelboard/internal/dependencies/clock"
	"github.com/duelboard/duelboard/internal/dependencies/random"
	"github.com/duelboard/duelboard/internal/realtime"
	"github.com/duelboard/duelboard/internal/security/csrf"
	"github.com/duelboard/duelboard/internal/services/magiclink"
	"github.com/duelboard/duelboard/internal/services/ratelimit"
	"github.com/duelboard/duelboard/internal/services/room"
	"github.com/duelboard/duelboard/internal/services/session"
	"github.com/duelboard/duelboard/internal/storage"
	"github.com/duelboard/duelboard/internal/storage/memory"
	redisstorage "github.com/duelboard/duelboard/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	SessionService   *session.Service
	MagicLinkService *magiclink.Service
	RateLimiter      *ratelimit.Limiter
	CsrfGuard        *csrf.Guard
	RoomManager      *room.Manager
	HubManager       *realtime.HubManager
	Gateway          *realtime.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig holds session service settings (optional)
	SessionConfig session.Config
	// MagicLinkConfig holds magic-link settings (optional)
	MagicLinkConfig magiclink.Config
	// RateLimitConfig holds login rate-limit settings (optional)
	RateLimitConfig ratelimit.Config
	// RoomConfig holds room lifecycle settings (optional)
	RoomConfig room.Config
	// SecureCookies marks session and csrf cookies Secure
	SecureCookies bool
	// EmailSender delivers magic-link emails (optional)
	// If nil, links are logged to the application logger
	EmailSender magiclink.EmailSender
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	sender := cfg.EmailSender
	if sender == nil {
		sender = magiclink.NewConsoleEmailSender(logger)
	}

	cfg.SessionConfig.SecureCookies = cfg.SecureCookies

	return newWithDependencies(store, clk, rnd, sender, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sender magiclink.EmailSender,
	cfg Config,
	logger *slog.Logger,
) *App {
	// Create services
	sessionService := session.New(store, clk, cfg.SessionConfig, logger)
	magicLinkService := magiclink.New(store, clk, rnd, sender, cfg.MagicLinkConfig, logger)
	rateLimiter := ratelimit.New(cfg.RateLimitConfig)
	csrfGuard := csrf.New(rnd, csrf.Config{SecureCookies: cfg.SecureCookies})
	roomManager := room.NewManager(clk, rnd, cfg.RoomConfig, logger)
	hubManager := realtime.NewHubManager(logger)
	gateway := realtime.NewGateway(sessionService, roomManager, hubManager, nil, realtime.Config{}, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		SessionService:   sessionService,
		MagicLinkService: magicLinkService,
		RateLimiter:      rateLimiter,
		CsrfGuard:        csrfGuard,
		RoomManager:      roomManager,
		HubManager:       hubManager,
		Gateway:          gateway,
	}
}
