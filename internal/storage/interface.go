package storage

import (
	"context"
	"time"

	"github.com/duelboard/duelboard/internal/model"
)

// Storage defines the keyed-store contract for identity and auth records.
// Implementations are swappable between an in-process map and a networked
// store; the room lifecycle deliberately does not go through here (rooms
// are process-owned state with timers attached).
type Storage interface {
	// Session identity operations. SaveSession applies the given TTL so
	// that every resolution slides the expiry forward.
	GetSession(ctx context.Context, key model.SessionKey) (*model.SessionIdentity, error)
	SaveSession(ctx context.Context, identity *model.SessionIdentity, ttl time.Duration) error
	DeleteSession(ctx context.Context, key model.SessionKey) error

	// Magic-link token operations, keyed by token hash. Used tokens are
	// kept around (rewritten with UsedAt set) so that a second verify
	// reports "already used" rather than "not found".
	SaveMagicLinkToken(ctx context.Context, token *model.MagicLinkToken) error
	GetMagicLinkToken(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error)
}
