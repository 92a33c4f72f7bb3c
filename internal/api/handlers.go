// Package api is the HTTP surface: per-domain handlers over the services,
// wired together by NewRouter. Handlers decode, validate, delegate, and map
// errors; no business logic lives here.
package api

import (
	"net/http"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/auth"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/services"
)

// actorUser resolves the authenticated actor and provisions the account on
// first touch. A false return means the response has been written.
func actorUser(w http.ResponseWriter, r *http.Request, users *services.UserService) (*model.User, bool) {
	actor := auth.ActorFrom(r.Context())
	if actor == nil {
		respond.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	u, err := users.EnsureUser(r.Context(), actor.UserID, actor.Email)
	if err != nil {
		respond.WriteServiceError(w, err)
		return nil, false
	}
	return u, true
}

// requireAdmin additionally checks the admin allowlist flag.
func requireAdmin(w http.ResponseWriter, r *http.Request) *auth.ActorInfo {
	actor := auth.ActorFrom(r.Context())
	if actor == nil {
		respond.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	if !actor.Admin {
		respond.WriteError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return actor
}
