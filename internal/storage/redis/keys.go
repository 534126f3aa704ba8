package redis

import (
	"fmt"

	"github.com/duelboard/duelboard/internal/model"
)

// Key prefix for all coordinator data
const keyPrefix = "duelboard"

// sessionKey returns the Redis key for a SessionIdentity
func sessionKey(key model.SessionKey) string {
	return fmt.Sprintf("%s:sess:%s", keyPrefix, key)
}

// magicLinkKey returns the Redis key for a MagicLinkToken record
func magicLinkKey(tokenHash string) string {
	return fmt.Sprintf("%s:magiclink:%s", keyPrefix, tokenHash)
}
