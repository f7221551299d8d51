package auth

import "errors"

var (
	// ErrValidation indicates caller input was missing or malformed.
	ErrValidation = errors.New("invalid input")
	// ErrUnauthorized indicates a credential or token failure, including
	// expired, rotated, or superseded refresh tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken indicates a token whose signature or claims do not check out.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates a token past its signed expiry.
	ErrTokenExpired = errors.New("token expired")
)
