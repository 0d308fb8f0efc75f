package api

import (
	"log"

	"homehub/internal/models"
	"homehub/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterDeviceRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *pgxpool.Pool) {
	devices := r.Group("/devices")
	devices.Use(middleware.RequireAuth())
	{
		devices.GET("/", func(c *gin.Context) {
			userID := ownerID(c)
			rows, err := dbConn.Query(c,
				"SELECT device_id, name, relay, accepted, owner_id FROM devices WHERE owner_id=$1", userID)
			if err != nil {
				log.Printf("WEB: fetching devices failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch devices"})
				return
			}
			defer rows.Close()

			devices := []models.Device{}
			for rows.Next() {
				var device models.Device
				if err := rows.Scan(&device.DeviceID, &device.Name, &device.Relay, &device.Accepted, &device.OwnerID); err != nil {
					c.JSON(500, gin.H{"error": "Failed to scan device"})
					return
				}
				devices = append(devices, device)
			}
			c.JSON(200, devices)
		})

		devices.POST("/:id/accept", func(c *gin.Context) {
			userID := ownerID(c)
			deviceID := c.Param("id")
			tag, err := dbConn.Exec(c,
				"UPDATE devices SET accepted = true, owner_id = $1 WHERE device_id = $2", userID, deviceID)
			if err != nil {
				log.Printf("WEB: accepting device %s failed: %v", deviceID, err)
				c.JSON(500, gin.H{"error": "Failed to accept device"})
				return
			}
			if tag.RowsAffected() == 0 {
				c.JSON(404, gin.H{"error": "Device not found"})
				return
			}
			c.JSON(200, gin.H{"status": "Device accepted"})
		})
	}
}
