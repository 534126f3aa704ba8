package handler

import (
	"net/http"

	"github.com/duelboard/duelboard/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeInvalidEmail       = apierr.CodeInvalidEmail
	CodeRateLimited        = apierr.CodeRateLimited
	CodeInvalidToken       = apierr.CodeInvalidToken
	CodeTokenExpired       = apierr.CodeTokenExpired
	CodeTokenUsed          = apierr.CodeTokenUsed
	CodeCSRFInvalid        = apierr.CodeCSRFInvalid
	CodeRoomNotFound       = apierr.CodeRoomNotFound
	CodeGameEnded          = apierr.CodeGameEnded
	CodePlayerNotInRoom    = apierr.CodePlayerNotInRoom
	CodeRoomCodesExhausted = apierr.CodeRoomCodesExhausted
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
