package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who triggered the transition that produced the event.
type ActorRef struct {
	ActorID *uuid.UUID `json:"actorId,omitempty"`
	Role    string     `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type actorKey struct{}

// ContextWithActor attaches the caller so events emitted under ctx record it.
func ContextWithActor(ctx context.Context, ref ActorRef) context.Context {
	if ref.ActorID == nil && ref.Role == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, ref)
}

// ActorFromContext returns the caller attached by ContextWithActor, if any.
func ActorFromContext(ctx context.Context) *ActorRef {
	if ctx == nil {
		return nil
	}
	ref, ok := ctx.Value(actorKey{}).(ActorRef)
	if !ok {
		return nil
	}
	return &ref
}
