package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/safari-buddy/internal/auth"
	"github.com/akylbek/safari-buddy/internal/models"
)

const (
	ContextUserID   = "userId"
	ContextUserRole = "userRole"
)

func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated caller. Zero means the route is public.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

func UserRole(c *gin.Context) models.UserRole {
	role, _ := c.Get(ContextUserRole)
	r, _ := role.(models.UserRole)
	return r
}
