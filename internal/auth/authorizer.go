package auth

import (
	"context"
)

// ActorInfo contains information about an authenticated actor
type ActorInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
}

// Authorizer resolves a bearer token to an actor in one call
type Authorizer interface {
	// Authorize validates the token and returns the acting user.
	// Returns ActorInfo if authorized, error if authentication fails.
	Authorize(ctx context.Context, token string) (*ActorInfo, error)
}
