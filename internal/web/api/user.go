package api

import (
	"log"

	"homehub/internal/models"
	"homehub/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterUserRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *pgxpool.Pool) {
	users := r.Group("/users")
	users.Use(middleware.RequireAuth())
	{
		users.GET("/me", func(c *gin.Context) {
			userID := ownerID(c)
			var user models.User
			err := dbConn.QueryRow(c,
				"SELECT id, username, name, role FROM users WHERE id=$1", userID).
				Scan(&user.ID, &user.Username, &user.Name, &user.Role)
			if err != nil {
				log.Printf("WEB: fetching user %d failed: %v", userID, err)
				c.JSON(404, gin.H{"error": "User not found"})
				return
			}
			c.JSON(200, user)
		})
	}
}
