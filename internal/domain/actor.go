package domain

import "context"

type actorKey struct{}

// WithActor returns a context carrying the id of the user performing the
// request. The HTTP authenticator sets it; services read it for ownership checks.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
