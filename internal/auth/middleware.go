package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// ActorFrom returns the authenticated actor stored on the request context,
// or nil when the request did not pass through Middleware.
func ActorFrom(ctx context.Context) *ActorInfo {
	actor, _ := ctx.Value(contextKey{}).(*ActorInfo)
	return actor
}

// WithActor returns a context carrying the given actor. Exposed for tests.
func WithActor(ctx context.Context, actor *ActorInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// Middleware authenticates every request with the given Authorizer and
// stores the resolved actor on the context. Unauthenticated requests get 401.
func Middleware(authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractToken(r)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			actor, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("authorization failed")
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized","code":401,"message":"` + err.Error() + `"}`))
}
