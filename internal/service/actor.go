package service

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated operator on whose behalf a request runs
type Actor struct {
	UserID      uuid.UUID
	Name        string
	WorkspaceID uuid.UUID
}

type actorKey struct{}

// WithActor stores the request-scoped actor on ctx
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor set by the auth middleware
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

func parseID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, Validation(field + " is required.")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, Validation("Invalid " + field + ".")
	}
	return id, nil
}
