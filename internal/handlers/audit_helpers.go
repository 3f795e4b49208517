package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return requestID
}

// userIDFromContext returns the identity resolved by the JWT
// middleware, or "" when there is none.
func userIDFromContext(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if userID, ok := v.(string); ok {
			return userID
		}
	}
	return ""
}
