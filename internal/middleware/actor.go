package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader carries the id of the supervisor, rider or auditor performing a
// request. Authenticating that id is the job of the gateway in front of this
// service.
const ActorHeader = "X-Actor-ID"

type actorKey struct{}

// NewActorExtractor returns a middleware that copies the trimmed ActorHeader
// value into the request context. It never rejects a request; handlers that
// mutate the ledger decide whether an actor is required.
func NewActorExtractor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
				r = r.WithContext(WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by NewActorExtractor, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
