package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Magic-link token errors, kept distinct because they imply different
	// user remediation (re-check link vs request a new one vs re-login)
	ErrTokenNotFound = errors.New("token not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenUsed     = errors.New("token already used")

	// Room errors
	ErrRoomNotFound           = errors.New("room not found")
	ErrGameEnded              = errors.New("game has already ended")
	ErrPlayerNotInRoom        = errors.New("player is not in room")
	ErrRoomCodeSpaceExhausted = errors.New("could not generate a unique room code")

	// Auth / security errors
	ErrInvalidEmail = errors.New("invalid email address")
	ErrRateLimited  = errors.New("too many attempts")
	ErrCSRFInvalid  = errors.New("csrf token missing or mismatched")
)
