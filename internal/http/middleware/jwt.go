package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lcensies/task-trackers-synchronizer/internal/auth"
)

// JWT requires a valid bearer token and stores its subject as "user_id".
func JWT(v auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing bearer"})
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		claims, err := v.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}
		c.Set("user_id", claims.Sub)
		c.Next()
	}
}
