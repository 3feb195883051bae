package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

// Identity headers set by the trusted gateway in front of the API.
const (
	headerUserID    = "X-User-Id"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
	headerUserRole  = "X-User-Role"
)

type actorCtxKey struct{}

// ActorFromContext returns the asserted caller identity, or a zero Actor
// when the request carried none.
func ActorFromContext(ctx context.Context) types.Actor {
	if actor, ok := ctx.Value(actorCtxKey{}).(types.Actor); ok {
		return actor
	}
	return types.Actor{}
}

// ContextWithActor is exported for handler tests.
func ContextWithActor(ctx context.Context, actor types.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// Identity requires gateway identity headers and stores the parsed actor
// in the request context. Requests without a user id are rejected.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := strings.TrimSpace(r.Header.Get(headerUserID))
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity headers"))
				return
			}

			role := enums.ActorRoleRequester
			if raw := strings.TrimSpace(r.Header.Get(headerUserRole)); raw != "" {
				parsed, err := enums.ParseActorRole(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unrecognized role"))
					return
				}
				role = parsed
			}

			actor := types.Actor{
				UserID: userID,
				Email:  strings.TrimSpace(r.Header.Get(headerUserEmail)),
				Name:   strings.TrimSpace(r.Header.Get(headerUserName)),
				Role:   role,
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.UserID)
				ctx = logg.WithActorRole(ctx, actor.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ContextWithActor(ctx, actor)))
		})
	}
}
