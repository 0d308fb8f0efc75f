package models

import "homehub/internal/models"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AddAutomationRuleRequest struct {
	SensorID      int64  `json:"sensor_id" binding:"required"`
	SensorTypeID  int64  `json:"sensor_type_id" binding:"required"`
	Condition     string `json:"condition" binding:"required"`
	Threshold     string `json:"threshold" binding:"required"`
	RelayDeviceID string `json:"relay_device_id" binding:"required"`
	Action        string `json:"action" binding:"required"`
	Enabled       *bool  `json:"enabled"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

type AddTimerRuleRequest struct {
	Title         string   `json:"title" binding:"required"`
	StartTime     string   `json:"start_time" binding:"required"`
	EndTime       string   `json:"end_time" binding:"required"`
	Days          []string `json:"days" binding:"required"`
	RelayDeviceID string   `json:"relay_device_id" binding:"required"`
	Action        string   `json:"action" binding:"required"`
	Enabled       *bool    `json:"enabled"`
}

type RelayCommandRequest struct {
	State string `json:"state" binding:"required"`
}

type AddSensorRequest struct {
	DeviceID     string `json:"device_id" binding:"required"`
	SensorKey    string `json:"sensor_key" binding:"required"`
	SensorTypeID int64  `json:"sensor_type_id" binding:"required"`
	Title        string `json:"title"`
}

type AddSensorTypeRequest struct {
	TypeKey     string   `json:"type_key" binding:"required"`
	DisplayName string   `json:"display_name" binding:"required"`
	Unit        *string  `json:"unit"`
	States      []string `json:"states"`
}

// SensorResponse is a sensor joined with its type plus the derived kind flag
type SensorResponse struct {
	models.SensorMeta
	Discrete bool `json:"discrete"`
}
