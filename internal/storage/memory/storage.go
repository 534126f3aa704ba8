package memory

import (
	"context"
	"sync"
	"time"

	"github.com/duelboard/duelboard/internal/model"
	"github.com/duelboard/duelboard/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// TTLs are not enforced; expiry only matters for the networked backend.
type Storage struct {
	mu sync.RWMutex

	sessions map[model.SessionKey]*model.SessionIdentity
	tokens   map[string]*model.MagicLinkToken
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionKey]*model.SessionIdentity),
		tokens:   make(map[string]*model.MagicLinkToken),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) GetSession(ctx context.Context, key model.SessionKey) (*model.SessionIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.sessions[key]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	copied := *identity
	return &copied, nil
}

func (s *Storage) SaveSession(ctx context.Context, identity *model.SessionIdentity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *identity
	s.sessions[identity.SessionKey] = &copied
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, key model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Magic-link token operations

func (s *Storage) SaveMagicLinkToken(ctx context.Context, token *model.MagicLinkToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.tokens[token.TokenHash] = &copied
	return nil
}

func (s *Storage) GetMagicLinkToken(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[tokenHash]
	if !ok {
		return nil, model.ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}
