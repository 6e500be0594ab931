package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ContextKeyUserID = "user_id"

// Subject reads the `sub` claim of a bearer JWT, if any, and stores it as the
// caller's user id. The token is NOT verified; the id is only used to attribute
// usage records and must never gate access. Malformed tokens are ignored.
func Subject() gin.HandlerFunc {
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
			claims := jwt.MapClaims{}
			if _, _, err := parser.ParseUnverified(token, claims); err == nil {
				if sub, err := claims.GetSubject(); err == nil && sub != "" {
					c.Set(ContextKeyUserID, sub)
				}
			}
		}
		c.Next()
	}
}

// GetUserID returns the caller's user id, or "" for anonymous callers.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}
