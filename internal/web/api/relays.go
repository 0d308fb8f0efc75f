package api

import (
	"errors"
	"strings"

	"homehub/internal/dispatch"
	"homehub/internal/web/middleware"
	webModels "homehub/internal/web/models"

	"github.com/gin-gonic/gin"
)

// RegisterRelayRoutes exposes manual relay control. The request state is
// normalized here; the dispatcher itself accepts only literal ON/OFF.
func RegisterRelayRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, disp *dispatch.Dispatcher) {
	relays := r.Group("/relays")
	relays.Use(middleware.RequireAuth())
	{
		relays.POST("/:id", func(c *gin.Context) {
			var req webModels.RelayCommandRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request, 'state' is required"})
				return
			}
			action := strings.ToUpper(req.State)
			err := disp.Send("manual", ownerID(c), c.Param("id"), action)
			if errors.Is(err, dispatch.ErrInvalidAction) {
				c.JSON(400, gin.H{"error": "Invalid command. Use 'ON' or 'OFF'."})
				return
			}
			if err != nil {
				c.JSON(502, gin.H{"error": "Failed to send relay command"})
				return
			}
			c.JSON(200, gin.H{"message": "Relay command sent", "command": action})
		})
	}
}
