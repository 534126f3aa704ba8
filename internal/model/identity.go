package model

import "time"

// SessionKey is the keyed-store lookup key for a session identity.
// It is the value carried in the session cookie.
type SessionKey string

// IdentityKey is an opaque string distinguishing a logical player
// independent of transport connection. Many connections can map to one
// identity over time (reconnects).
type IdentityKey string

// SessionIdentity is the identity record bound to one session cookie.
// Replaced wholesale on login/logout: a new SessionKey is minted and the
// old record deleted.
type SessionIdentity struct {
	SessionKey  SessionKey `json:"session_key"`
	GuestID     string     `json:"guest_id"`
	AccountID   string     `json:"account_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAccount reports whether the identity has been upgraded to an account.
func (i *SessionIdentity) IsAccount() bool {
	return i.AccountID != ""
}

// Key derives the opaque identity key used by the room lifecycle:
// "account:<id>" for authenticated identities, "guest:<id>" otherwise.
func (i *SessionIdentity) Key() IdentityKey {
	if i.AccountID != "" {
		return IdentityKey("account:" + i.AccountID)
	}
	return IdentityKey("guest:" + i.GuestID)
}
