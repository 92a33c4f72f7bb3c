package auth

import "errors"

var (
	// ErrMissingToken is returned when no bearer token is present on the request
	ErrMissingToken = errors.New("missing Authorization header")

	// ErrInvalidToken is returned when the token does not resolve to a user
	ErrInvalidToken = errors.New("invalid token")
)
