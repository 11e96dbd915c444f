package middleware

import (
	"net/http"
	"strings"

	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOnly guards administrative endpoints. In dev mode everything passes;
// otherwise a bearer token with the admin role is required.
func AdminOnly(tokens *service.AdminTokens, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if devMode {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}
		sub, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin token"})
			return
		}
		c.Set("admin", sub)
		c.Next()
	}
}
