package api

import (
	"context"
	"log"
	"strconv"

	"homehub/internal/engine"
	"homehub/internal/models"
	"homehub/internal/web/middleware"
	webModels "homehub/internal/web/models"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleEvaluator is the engine surface the API needs
type RuleEvaluator interface {
	EvaluateRules(ctx context.Context, ownerID int64) (engine.Result, error)
}

// DeviceLookup resolves a device record for validating rule targets
type DeviceLookup interface {
	GetDeviceByID(ctx context.Context, deviceID string) (*models.Device, error)
}

func ownerID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.GetString("user_id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func validCondition(condition string) bool {
	switch condition {
	case engine.ConditionGreaterThan, engine.ConditionLessThan, engine.ConditionEquals:
		return true
	}
	return false
}

func RegisterAutomationRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *pgxpool.Pool, devices DeviceLookup, eval RuleEvaluator) {
	automations := r.Group("/automations")
	automations.Use(middleware.RequireAuth())
	{
		automations.GET("/rules", func(c *gin.Context) {
			userID := ownerID(c)
			rows, err := dbConn.Query(c,
				`SELECT id, owner_id, sensor_id, sensor_type_id, condition, threshold,
				        relay_device_id, action, enabled, title, description
				 FROM automation_rules WHERE owner_id=$1`, userID)
			if err != nil {
				log.Printf("WEB: fetching rules failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch rules"})
				return
			}
			defer rows.Close()

			rules := []models.AutomationRule{}
			for rows.Next() {
				var a models.AutomationRule
				if err := rows.Scan(&a.ID, &a.OwnerID, &a.SensorID, &a.SensorTypeID, &a.Condition,
					&a.Threshold, &a.RelayDeviceID, &a.Action, &a.Enabled, &a.Title, &a.Description); err != nil {
					log.Printf("WEB: scanning rule failed: %v", err)
					continue
				}
				rules = append(rules, a)
			}
			c.JSON(200, rules)
		})

		automations.POST("/rules", func(c *gin.Context) {
			userID := ownerID(c)
			var req webModels.AddAutomationRuleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if !validCondition(req.Condition) {
				c.JSON(400, gin.H{"error": "condition must be GREATER_THAN, LESS_THAN or EQUALS"})
				return
			}
			if req.Action != "ON" && req.Action != "OFF" {
				c.JSON(400, gin.H{"error": "action must be ON or OFF"})
				return
			}
			device, err := devices.GetDeviceByID(c, req.RelayDeviceID)
			if err != nil {
				c.JSON(404, gin.H{"error": "Unknown relay device"})
				return
			}
			if !device.Relay {
				c.JSON(400, gin.H{"error": "Target device is not a relay"})
				return
			}
			enabled := true
			if req.Enabled != nil {
				enabled = *req.Enabled
			}

			var ruleID int64
			err = dbConn.QueryRow(c,
				`INSERT INTO automation_rules
				   (owner_id, sensor_id, sensor_type_id, condition, threshold, relay_device_id, action, enabled, title, description)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
				userID, req.SensorID, req.SensorTypeID, req.Condition, req.Threshold,
				req.RelayDeviceID, req.Action, enabled, req.Title, req.Description).Scan(&ruleID)
			if err != nil {
				log.Printf("WEB: creating rule failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to create rule"})
				return
			}
			c.JSON(201, gin.H{"rule_id": ruleID})
		})

		automations.DELETE("/rules/:id", func(c *gin.Context) {
			userID := ownerID(c)
			ruleID := c.Param("id")
			_, err := dbConn.Exec(c, "DELETE FROM automation_rules WHERE id=$1 AND owner_id=$2", ruleID, userID)
			if err != nil {
				log.Printf("WEB: deleting rule %s failed: %v", ruleID, err)
				c.JSON(500, gin.H{"error": "Failed to delete rule"})
				return
			}
			c.JSON(200, gin.H{"status": "Rule deleted successfully"})
		})

		// POST /automations/evaluate runs a synchronous evaluation pass over
		// the caller's rules and reports matches and dispatches
		automations.POST("/evaluate", func(c *gin.Context) {
			result, err := eval.EvaluateRules(c, ownerID(c))
			if err != nil {
				log.Printf("WEB: evaluation failed: %v", err)
				c.JSON(500, gin.H{"error": "Evaluation failed"})
				return
			}
			c.JSON(200, result)
		})
	}
}
