package shared

import "context"

type actorContextKey struct{}

// SystemActor is recorded when no caller identity is available.
const SystemActor = "system"

// ContextWithActor stores the acting user name in ctx.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the acting user name, or SystemActor.
func ActorFromContext(ctx context.Context) string {
	if actor, _ := ctx.Value(actorContextKey{}).(string); actor != "" {
		return actor
	}
	return SystemActor
}
