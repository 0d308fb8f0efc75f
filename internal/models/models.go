package models

import "time"

// User represents a hub account
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     int    `json:"role"`
}

// Device represents a registered physical device
type Device struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Relay    bool   `json:"relay"`
	Accepted bool   `json:"accepted"`
	OwnerID  *int64 `json:"owner_id"`
}

// SensorType describes how readings for a sensor kind are interpreted.
// Unit is set for numeric sensors, States for discrete ones.
type SensorType struct {
	ID          int64    `json:"id"`
	TypeKey     string   `json:"type_key"`
	DisplayName string   `json:"display_name"`
	Unit        *string  `json:"unit"`
	States      []string `json:"states"`
}

// SensorMeta is a sensor joined with its type, as the rule engine consumes it
type SensorMeta struct {
	SensorID     int64    `json:"sensor_id"`
	DeviceID     string   `json:"device_id"`
	SensorKey    string   `json:"sensor_key"`
	SensorTypeID int64    `json:"sensor_type_id"`
	TypeKey      string   `json:"type_key"`
	DisplayName  string   `json:"display_name"`
	Unit         *string  `json:"unit"`
	States       []string `json:"states"`
}

// IsDiscrete reports whether the sensor reports discrete states rather than numbers
func (m SensorMeta) IsDiscrete() bool {
	return len(m.States) > 0
}

// AutomationRule is a threshold rule against a single sensor
type AutomationRule struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"owner_id"`
	SensorID      int64  `json:"sensor_id"`
	SensorTypeID  int64  `json:"sensor_type_id"`
	Condition     string `json:"condition"` // GREATER_THAN, LESS_THAN, EQUALS
	Threshold     string `json:"threshold"` // numeric literal or state string
	RelayDeviceID string `json:"relay_device_id"`
	Action        string `json:"action"` // ON or OFF
	Enabled       bool   `json:"enabled"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

// TimerRule fires an action inside a wall-clock window on selected weekdays
type TimerRule struct {
	ID            int64    `json:"id"`
	OwnerID       int64    `json:"owner_id"`
	Title         string   `json:"title"`
	StartTime     string   `json:"start_time"` // "HH:MM", inclusive
	EndTime       string   `json:"end_time"`   // "HH:MM", inclusive
	Days          []string `json:"days"`       // "Mon".."Sun"
	RelayDeviceID string   `json:"relay_device_id"`
	Action        string   `json:"action"`
	Enabled       bool     `json:"enabled"`
}

// DispatchRecord is one audit entry for an issued relay command
type DispatchRecord struct {
	ID            int64     `json:"id"`
	Source        string    `json:"source"` // "rule", "timer" or "manual"
	SourceID      int64     `json:"source_id"`
	RelayDeviceID string    `json:"relay_device_id"`
	Action        string    `json:"action"`
	DispatchedAt  time.Time `json:"dispatched_at"`
	Delivered     bool      `json:"delivered"`
}
