package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/taskflowhq/board-api/internal/constants"
	apierrors "github.com/taskflowhq/board-api/internal/errors"
)

// RequireAuth checks for a verified caller identity in the shared session.
// The session is written by the external auth service; this service only
// ever reads it.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		if username := session.Get(constants.ContextKeyUsername); username != nil {
			c.Set(constants.ContextKeyUsername, username)
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetUsername retrieves the current user's display name from context
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(constants.ContextKeyUsername)
	if !exists {
		return "", false
	}
	name, ok := username.(string)
	return name, ok
}
