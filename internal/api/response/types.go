package response

import (
	"github.com/duelboard/duelboard/internal/model"
)

// Identity represents a session identity in API responses. The session
// key itself never leaves the cookie.
type Identity struct {
	GuestID     string `json:"guest_id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsAccount   bool   `json:"is_account"`
}

// IdentityFromModel converts a model.SessionIdentity to a response Identity
func IdentityFromModel(identity *model.SessionIdentity) Identity {
	return Identity{
		GuestID:     identity.GuestID,
		AccountID:   identity.AccountID,
		DisplayName: identity.DisplayName,
		IsAccount:   identity.IsAccount(),
	}
}

// CSRFToken is the response for the CSRF issuance endpoint
type CSRFToken struct {
	Token string `json:"token"`
}

// Status is a minimal acknowledgement body
type Status struct {
	Status string `json:"status"`
}
