package request

// StartMagicLinkRequest is the request body for requesting a login link
type StartMagicLinkRequest struct {
	Email string `json:"email"`
}

// VerifyMagicLinkRequest is the request body for redeeming a login link
type VerifyMagicLinkRequest struct {
	Token string `json:"token"`
}
