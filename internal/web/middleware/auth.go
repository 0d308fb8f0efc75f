package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (m *MiddlewareManager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := m.auth.ValidateTokenJWT(c, c.GetHeader("Authorization"))
		if err != nil {
			log.Printf("WEB: authentication failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)

		c.Next()
	}
}
