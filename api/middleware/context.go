package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"

	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// ActorIDFromContext returns the caller id forwarded by the gateway.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the caller identity into the context.
func WithActor(ctx context.Context, id, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, id)
	return context.WithValue(ctx, ctxActorRole, role)
}

// Actor copies the identity headers set by the upstream gateway into the
// request context, the log fields and any outbox event emitted while serving
// the request. Authentication happens before this service is reached.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(actorIDHeader))
			role := strings.ToLower(strings.TrimSpace(r.Header.Get(actorRoleHeader)))
			ctx := WithActor(r.Context(), id, role)
			ref := outbox.ActorRef{Role: role}
			if parsed, err := uuid.Parse(id); err == nil {
				ref.ActorID = &parsed
			}
			ctx = outbox.ContextWithActor(ctx, ref)
			if logg != nil && role != "" {
				ctx = logg.WithActorRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
