package api

import (
	"log"

	"homehub/internal/models"
	"homehub/internal/registry"
	"homehub/internal/web/middleware"
	webModels "homehub/internal/web/models"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// validateSensorType enforces that a type is either numeric (unit) or
// discrete (states), never both and never neither. Returns an error message
// or "" when valid.
func validateSensorType(req webModels.AddSensorTypeRequest) string {
	if req.Unit != nil && len(req.States) > 0 {
		return "a sensor type is either numeric (unit) or discrete (states), not both"
	}
	if req.Unit == nil && len(req.States) == 0 {
		return "a sensor type needs a unit or a list of states"
	}
	for _, s := range req.States {
		if s == "" {
			return "states entries must not be empty"
		}
	}
	return ""
}

// RegisterSensorRoutes exposes sensor and sensor-type management. Writes
// invalidate the registry cache so the rule engine sees changes on its next
// evaluation pass.
func RegisterSensorRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *pgxpool.Pool, reg *registry.Registry) {
	sensors := r.Group("/sensors")
	sensors.Use(middleware.RequireAuth())
	{
		sensors.GET("/", func(c *gin.Context) {
			metas, err := reg.SensorsByID(c)
			if err != nil {
				log.Printf("WEB: fetching sensors failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch sensors"})
				return
			}
			out := make([]webModels.SensorResponse, 0, len(metas))
			for _, m := range metas {
				out = append(out, webModels.SensorResponse{SensorMeta: m, Discrete: m.IsDiscrete()})
			}
			c.JSON(200, out)
		})

		sensors.POST("/", func(c *gin.Context) {
			var req webModels.AddSensorRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			var sensorID int64
			err := dbConn.QueryRow(c,
				`INSERT INTO sensors (device_id, sensor_key, sensor_type_id, title)
				 VALUES ($1, $2, $3, $4) RETURNING id`,
				req.DeviceID, req.SensorKey, req.SensorTypeID, req.Title).Scan(&sensorID)
			if err != nil {
				log.Printf("WEB: registering sensor failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to register sensor"})
				return
			}
			reg.Invalidate(c)
			c.JSON(201, gin.H{"sensor_id": sensorID})
		})

		sensors.DELETE("/:id", func(c *gin.Context) {
			sensorID := c.Param("id")
			tag, err := dbConn.Exec(c, "DELETE FROM sensors WHERE id=$1", sensorID)
			if err != nil {
				log.Printf("WEB: deleting sensor %s failed: %v", sensorID, err)
				c.JSON(500, gin.H{"error": "Failed to delete sensor"})
				return
			}
			if tag.RowsAffected() == 0 {
				c.JSON(404, gin.H{"error": "Sensor not found"})
				return
			}
			reg.Invalidate(c)
			c.JSON(200, gin.H{"status": "Sensor deleted"})
		})

		sensors.GET("/types", func(c *gin.Context) {
			rows, err := dbConn.Query(c, "SELECT id, type_key, display_name, unit, states FROM sensor_types")
			if err != nil {
				log.Printf("WEB: fetching sensor types failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch sensor types"})
				return
			}
			defer rows.Close()

			types := []models.SensorType{}
			for rows.Next() {
				var t models.SensorType
				if err := rows.Scan(&t.ID, &t.TypeKey, &t.DisplayName, &t.Unit, &t.States); err != nil {
					log.Printf("WEB: scanning sensor type failed: %v", err)
					continue
				}
				types = append(types, t)
			}
			c.JSON(200, types)
		})

		sensors.POST("/types", func(c *gin.Context) {
			var req webModels.AddSensorTypeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if msg := validateSensorType(req); msg != "" {
				c.JSON(400, gin.H{"error": msg})
				return
			}
			var typeID int64
			err := dbConn.QueryRow(c,
				`INSERT INTO sensor_types (type_key, display_name, unit, states)
				 VALUES ($1, $2, $3, $4) RETURNING id`,
				req.TypeKey, req.DisplayName, req.Unit, req.States).Scan(&typeID)
			if err != nil {
				log.Printf("WEB: creating sensor type failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to create sensor type"})
				return
			}
			reg.Invalidate(c)
			c.JSON(201, gin.H{"type_id": typeID})
		})
	}
}
