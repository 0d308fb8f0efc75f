package db

import (
	"context"

	"homehub/internal/models"
)

// GetAutomationRules fetches automation rules, filterable by owner and enabled
// flag. ownerID <= 0 means all owners.
func (d *DB) GetAutomationRules(ctx context.Context, ownerID int64, enabledOnly bool) ([]models.AutomationRule, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, owner_id, sensor_id, sensor_type_id, condition, threshold,
		        relay_device_id, action, enabled, title, description
		 FROM automation_rules
		 WHERE ($1::bigint <= 0 OR owner_id = $1) AND (NOT $2::bool OR enabled)`,
		ownerID, enabledOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AutomationRule
	for rows.Next() {
		var r models.AutomationRule
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.SensorID, &r.SensorTypeID, &r.Condition,
			&r.Threshold, &r.RelayDeviceID, &r.Action, &r.Enabled, &r.Title, &r.Description); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetTimerRules fetches timer rules, filterable by owner and enabled flag.
// ownerID <= 0 means all owners.
func (d *DB) GetTimerRules(ctx context.Context, ownerID int64, enabledOnly bool) ([]models.TimerRule, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, owner_id, title, start_time, end_time, days, relay_device_id, action, enabled
		 FROM timer_rules
		 WHERE ($1::bigint <= 0 OR owner_id = $1) AND (NOT $2::bool OR enabled)`,
		ownerID, enabledOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.TimerRule
	for rows.Next() {
		var r models.TimerRule
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Title, &r.StartTime, &r.EndTime,
			&r.Days, &r.RelayDeviceID, &r.Action, &r.Enabled); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetSensorsWithTypes fetches every sensor joined with its type metadata
func (d *DB) GetSensorsWithTypes(ctx context.Context) ([]models.SensorMeta, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT s.id, s.device_id, s.sensor_key, s.sensor_type_id,
		        t.type_key, t.display_name, t.unit, t.states
		 FROM sensors s
		 JOIN sensor_types t ON s.sensor_type_id = t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []models.SensorMeta
	for rows.Next() {
		var m models.SensorMeta
		if err := rows.Scan(&m.SensorID, &m.DeviceID, &m.SensorKey, &m.SensorTypeID,
			&m.TypeKey, &m.DisplayName, &m.Unit, &m.States); err != nil {
			return nil, err
		}
		sensors = append(sensors, m)
	}
	return sensors, rows.Err()
}

// GetDeviceByID fetches a device by ID
func (d *DB) GetDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var device models.Device
	err := d.pool.QueryRow(ctx,
		"SELECT device_id, name, relay, accepted, owner_id FROM devices WHERE device_id = $1", id).
		Scan(&device.DeviceID, &device.Name, &device.Relay, &device.Accepted, &device.OwnerID)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// InsertDispatchRecord appends one relay command to the audit log
func (d *DB) InsertDispatchRecord(ctx context.Context, rec models.DispatchRecord) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO dispatch_log (source, source_id, relay_device_id, action, dispatched_at, delivered)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Source, rec.SourceID, rec.RelayDeviceID, rec.Action, rec.DispatchedAt, rec.Delivered)
	return err
}
