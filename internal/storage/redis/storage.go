package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// withTimeout bounds a store operation so callers see a transient failure
// instead of waiting indefinitely on a stalled connection
func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// Session operations

func (s *Storage) GetSession(ctx context.Context, key model.SessionKey) (*model.SessionIdentity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var identity model.SessionIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) SaveSession(ctx context.Context, identity *model.SessionIdentity, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, sessionKey(identity.SessionKey), data, ttl).Err()
}

func (s *Storage) DeleteSession(ctx context.Context, key model.SessionKey) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.client.Del(ctx, sessionKey(key)).Err()
}

// Magic-link token operations

func (s *Storage) SaveMagicLinkToken(ctx context.Context, token *model.MagicLinkToken) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, magicLinkKey(token.TokenHash), data, s.cfg.MagicLinkTokenTTL).Err()
}

func (s *Storage) GetMagicLinkToken(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, magicLinkKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTokenNotFound
		}
		return nil, err
	}

	var token model.MagicLinkToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
