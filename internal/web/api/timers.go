package api

import (
	"context"
	"log"
	"time"

	"homehub/internal/models"
	"homehub/internal/scheduler"
	"homehub/internal/web/middleware"
	webModels "homehub/internal/web/models"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimerEvaluator is the scheduler surface the API needs
type TimerEvaluator interface {
	EvaluateTimers(ctx context.Context) ([]scheduler.WindowStatus, error)
}

var validDays = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

// validateTimerWindow rejects malformed or inverted windows at creation time.
// The scheduler additionally treats inverted windows as never-matching, so a
// bad row cannot misfire even if it bypasses this check.
func validateTimerWindow(req webModels.AddTimerRuleRequest) string {
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return "start_time must be HH:MM"
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return "end_time must be HH:MM"
	}
	if end.Before(start) {
		return "end_time must not precede start_time (overnight windows are not supported)"
	}
	if len(req.Days) == 0 {
		return "days must name at least one weekday"
	}
	for _, d := range req.Days {
		if !validDays[d] {
			return "days entries must be Mon..Sun"
		}
	}
	if req.Action != "ON" && req.Action != "OFF" {
		return "action must be ON or OFF"
	}
	return ""
}

func RegisterTimerRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *pgxpool.Pool, eval TimerEvaluator) {
	timers := r.Group("/timers")
	timers.Use(middleware.RequireAuth())
	{
		timers.GET("/rules", func(c *gin.Context) {
			userID := ownerID(c)
			rows, err := dbConn.Query(c,
				`SELECT id, owner_id, title, start_time, end_time, days, relay_device_id, action, enabled
				 FROM timer_rules WHERE owner_id=$1`, userID)
			if err != nil {
				log.Printf("WEB: fetching timer rules failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch timer rules"})
				return
			}
			defer rows.Close()

			rules := []models.TimerRule{}
			for rows.Next() {
				var t models.TimerRule
				if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.StartTime, &t.EndTime,
					&t.Days, &t.RelayDeviceID, &t.Action, &t.Enabled); err != nil {
					log.Printf("WEB: scanning timer rule failed: %v", err)
					continue
				}
				rules = append(rules, t)
			}
			c.JSON(200, rules)
		})

		timers.POST("/rules", func(c *gin.Context) {
			userID := ownerID(c)
			var req webModels.AddTimerRuleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if msg := validateTimerWindow(req); msg != "" {
				c.JSON(400, gin.H{"error": msg})
				return
			}
			enabled := true
			if req.Enabled != nil {
				enabled = *req.Enabled
			}

			var ruleID int64
			err := dbConn.QueryRow(c,
				`INSERT INTO timer_rules (owner_id, title, start_time, end_time, days, relay_device_id, action, enabled)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
				userID, req.Title, req.StartTime, req.EndTime, req.Days,
				req.RelayDeviceID, req.Action, enabled).Scan(&ruleID)
			if err != nil {
				log.Printf("WEB: creating timer rule failed: %v", err)
				c.JSON(500, gin.H{"error": "Failed to create timer rule"})
				return
			}
			c.JSON(201, gin.H{"rule_id": ruleID})
		})

		timers.DELETE("/rules/:id", func(c *gin.Context) {
			userID := ownerID(c)
			ruleID := c.Param("id")
			_, err := dbConn.Exec(c, "DELETE FROM timer_rules WHERE id=$1 AND owner_id=$2", ruleID, userID)
			if err != nil {
				log.Printf("WEB: deleting timer rule %s failed: %v", ruleID, err)
				c.JSON(500, gin.H{"error": "Failed to delete timer rule"})
				return
			}
			c.JSON(200, gin.H{"status": "Timer rule deleted successfully"})
		})

		// GET /timers/status runs a scheduler pass and reports window states
		timers.GET("/status", func(c *gin.Context) {
			statuses, err := eval.EvaluateTimers(c)
			if err != nil {
				log.Printf("WEB: timer evaluation failed: %v", err)
				c.JSON(500, gin.H{"error": "Timer evaluation failed"})
				return
			}
			c.JSON(200, statuses)
		})
	}
}
