package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorIDKey is the key used to store the acting user's ID in the request context.
const actorIDKey = contextKey("actorID")

// actorHeader carries the acting user's identifier. Authentication itself is
// the responsibility of the deployment's gateway; the engine only records the
// actor for audit fields.
const actorHeader = "X-Actor-ID"

// systemActor is recorded when no actor header is present (scheduled sweeps,
// internal postings).
const systemActor = "system"

// ActorMiddleware resolves the acting user from the request and stores it in
// the request context for audit trails.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = systemActor
		}
		ctx := context.WithValue(c.Request.Context(), actorIDKey, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActorFromContext retrieves the acting user ID from the context, falling
// back to the system actor.
func GetActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorIDKey).(string); ok && actor != "" {
		return actor
	}
	return systemActor
}
