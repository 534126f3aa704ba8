package model

import "time"

// MagicLinkToken is the stored record for a single-use login token.
// TokenHash is the store key; the raw token only ever appears in the
// emailed URL. A token transitions unused -> used exactly once.
type MagicLinkToken struct {
	TokenHash   string     `json:"token_hash"`
	Email       string     `json:"email"` // normalized (trimmed, lowercased)
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	RequestedIP string     `json:"requested_ip"`
	UserAgent   string     `json:"user_agent"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Used reports whether the token has already been consumed.
func (t *MagicLinkToken) Used() bool {
	return t.UsedAt != nil
}
