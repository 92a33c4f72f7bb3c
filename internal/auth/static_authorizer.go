package auth

import (
	"context"
	"strings"
)

// StaticAuthorizer resolves tokens against a fixed token -> user table. It
// backs local development and tests; a hosted deployment swaps in an
// Authorizer backed by the identity provider.
type StaticAuthorizer struct {
	tokens      map[string]string
	emails      map[string]string
	adminEmails map[string]bool
}

// NewStaticAuthorizer creates an authorizer over a token -> userID map and
// an optional lowercase admin email allowlist.
func NewStaticAuthorizer(tokens map[string]string, adminEmails map[string]bool) *StaticAuthorizer {
	return &StaticAuthorizer{
		tokens:      tokens,
		emails:      make(map[string]string),
		adminEmails: adminEmails,
	}
}

// SetEmail registers the email resolved for a user id, so admin gating can
// work without a directory lookup.
func (a *StaticAuthorizer) SetEmail(userID, email string) {
	a.emails[userID] = strings.ToLower(email)
}

// Authorize validates the token and returns the acting user.
func (a *StaticAuthorizer) Authorize(ctx context.Context, token string) (*ActorInfo, error) {
	userID, ok := a.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	email := a.emails[userID]
	return &ActorInfo{
		UserID: userID,
		Email:  email,
		Admin:  a.adminEmails[email],
	}, nil
}

var _ Authorizer = (*StaticAuthorizer)(nil)
