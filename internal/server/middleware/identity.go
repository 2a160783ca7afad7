package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key holding the caller identity.
const UserIDKey = "user_id"

// Identity extracts the X-User-ID header, minting an anonymous id when
// absent so downstream logging always has something to attribute.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = "anon-" + uuid.NewString()
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID reads the caller identity set by Identity.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
