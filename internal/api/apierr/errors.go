package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duelboard/duelboard/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeRateLimited        = "AUTH_RATE_LIMITED"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	CodeTokenUsed          = "AUTH_TOKEN_USED"
	CodeCSRFInvalid        = "CSRF_INVALID"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeGameEnded          = "GAME_ALREADY_ENDED"
	CodePlayerNotInRoom    = "PLAYER_NOT_IN_ROOM"
	CodeRoomCodesExhausted = "ROOM_CODES_EXHAUSTED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrInvalidEmail):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidEmail, "A valid email address is required"}}
	case errors.Is(err, model.ErrRateLimited):
		return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many requests, try again shortly"}}
	case errors.Is(err, model.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidToken, "Invalid login token"}}
	case errors.Is(err, model.ErrTokenUsed):
		return &httpError{http.StatusConflict, APIError{CodeTokenUsed, "This login link has already been used"}}
	case errors.Is(err, model.ErrTokenExpired):
		return &httpError{http.StatusGone, APIError{CodeTokenExpired, "This login link has expired"}}
	case errors.Is(err, model.ErrCSRFInvalid):
		return &httpError{http.StatusForbidden, APIError{CodeCSRFInvalid, "CSRF token missing or invalid"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrGameEnded):
		return &httpError{http.StatusConflict, APIError{CodeGameEnded, "Game has already ended"}}
	case errors.Is(err, model.ErrPlayerNotInRoom):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotInRoom, "You are not a member of this room"}}
	case errors.Is(err, model.ErrRoomCodeSpaceExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeRoomCodesExhausted, "No room codes available, try again"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
