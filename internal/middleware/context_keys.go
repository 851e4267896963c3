package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorIDKey is the key used to store the acting identity in the context.
const actorIDKey = contextKey("actorID")

// actorIDHeader carries the acting identity resolved by the upstream
// authentication layer (an external collaborator of this core).
const actorIDHeader = "X-Actor-ID"

// ActorMiddleware copies the acting identity from the request header into
// the request context so services can record posted_by/created_by.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := c.GetHeader(actorIDHeader); actorID != "" {
			c.Request = c.Request.WithContext(
				context.WithValue(c.Request.Context(), actorIDKey, actorID))
		}
		c.Next()
	}
}

// GetActorIDFromContext retrieves the acting identity from the Gin context.
// It returns the actor ID and a boolean indicating if it was found.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	actorIDVal := c.Request.Context().Value(actorIDKey)
	if actorIDVal == nil {
		return "", false
	}
	actorID, ok := actorIDVal.(string)
	if !ok || actorID == "" {
		return "", false
	}
	return actorID, true
}
