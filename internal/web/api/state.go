package api

import (
	"strconv"
	"time"

	"homehub/internal/statestore"
	"homehub/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterStateRoutes exposes the live device state snapshot
func RegisterStateRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, store *statestore.Store) {
	state := r.Group("/state")
	state.Use(middleware.RequireAuth())
	{
		// GET /state/snapshot?max_age_secs=10
		state.GET("/snapshot", func(c *gin.Context) {
			maxAge := statestore.DefaultMaxAge
			if raw := c.Query("max_age_secs"); raw != "" {
				secs, err := strconv.Atoi(raw)
				if err != nil || secs <= 0 {
					c.JSON(400, gin.H{"error": "max_age_secs must be a positive integer"})
					return
				}
				maxAge = time.Duration(secs) * time.Second
			}
			c.JSON(200, store.Snapshot(maxAge))
		})
	}
}
